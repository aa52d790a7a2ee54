package adapters

import "context"

// Offline は外部モデルなしで動作させるためのコラボレーターです。
// すべての呼び出しが ErrUnavailable を返し、各コンポーネントは決定論的なフォールバックに切り替わります。
type Offline struct{}

// Analyze は常に ErrUnavailable を返します。
func (Offline) Analyze(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// Render は常に ErrUnavailable を返します。
func (Offline) Render(context.Context, RenderRequest) (*RenderResult, error) {
	return nil, ErrUnavailable
}
