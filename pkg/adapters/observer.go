package adapters

import "context"

// Observer はコラボレーターの失敗に伴うフォールバックやプレースホルダーの発生を受け取ります。
// メトリクスの計上などに使うのだ。
type Observer interface {
	// Fallback は stage の処理が決定論的なフォールバックに切り替わったときに呼ばれます。
	Fallback(ctx context.Context, stage string, err error)
	// Placeholder は kind（characters / locations / panels）のプレースホルダー画像が書き出されたときに呼ばれます。
	Placeholder(ctx context.Context, kind string)
}

// NopObserver は何もしない Observer です。
type NopObserver struct{}

func (NopObserver) Fallback(context.Context, string, error) {}
func (NopObserver) Placeholder(context.Context, string)     {}

// フォールバックが発生する処理段階の名前です。
const (
	StageSetup     = "setup"
	StageEntities  = "entities"
	StageStructure = "structure"
	StageScenes    = "scenes"
	StagePanels    = "panels"
	StageRender    = "render"
)
