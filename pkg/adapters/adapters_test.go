package adapters

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-novel-comic-kit/pkg/asset"
)

type mockImageGenerator struct {
	mock.Mock
}

func (m *mockImageGenerator) GenerateMangaPanel(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*imagedom.ImageResponse)
	return resp, args.Error(1)
}

func (m *mockImageGenerator) GenerateMangaPage(ctx context.Context, req imagedom.ImagePageRequest) (*imagedom.ImageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*imagedom.ImageResponse)
	return resp, args.Error(1)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) UploadFile(ctx context.Context, r io.Reader, mimeType, displayName string) (string, string, error) {
	args := m.Called(ctx, r, mimeType, displayName)
	return args.String(0), args.String(1), args.Error(2)
}

// allFetchable は生成エンジンが各参照を取得できるか（File API URI があるか、リモート URL か）を判定します。
func allFetchable(req imagedom.ImagePageRequest) bool {
	if len(req.FileAPIURIs) != len(req.ReferenceURLs) {
		return false
	}
	for i, ref := range req.ReferenceURLs {
		if req.FileAPIURIs[i] == "" && !IsRemoteReference(ref) {
			return false
		}
	}
	return true
}

func TestIsRemoteReference(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.png":        true,
		"http://example.com/a.png":         true,
		"gs://bucket/a.png":                true,
		"comic_output/characters/Luna.png": false,
		"/abs/path/luna.png":               false,
		"file:///abs/path/luna.png":        false,
		"":                                 false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsRemoteReference(in), "入力: %q", in)
	}
}

func TestOffline(t *testing.T) {
	var off Offline
	_, err := off.Analyze(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrUnavailable)

	res, err := off.Render(context.Background(), RenderRequest{Prompt: "p"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeminiAnalyzer_Analyze(t *testing.T) {
	t.Run("同一プロンプトはキャッシュから返されること", func(t *testing.T) {
		calls := 0
		a := newGeminiAnalyzer(func(ctx context.Context, prompt string) (string, error) {
			calls++
			return `{"ok": true}`, nil
		}, AnalyzerOptions{Model: "m"})

		for range 3 {
			text, err := a.Analyze(context.Background(), "same prompt")
			require.NoError(t, err)
			assert.Equal(t, `{"ok": true}`, text)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("キャッシュ無効時は毎回呼び出されること", func(t *testing.T) {
		calls := 0
		a := newGeminiAnalyzer(func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "text", nil
		}, AnalyzerOptions{Model: "m", CacheTTL: -1})

		_, _ = a.Analyze(context.Background(), "p")
		_, _ = a.Analyze(context.Background(), "p")
		assert.Equal(t, 2, calls)
	})

	t.Run("空の応答は ErrEmptyResponse となりキャッシュされないこと", func(t *testing.T) {
		calls := 0
		a := newGeminiAnalyzer(func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "   ", nil
		}, AnalyzerOptions{Model: "m"})

		_, err := a.Analyze(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
		_, err = a.Analyze(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
		assert.Equal(t, 2, calls)
	})

	t.Run("生成エラーはラップされて返ること", func(t *testing.T) {
		boom := errors.New("boom")
		a := newGeminiAnalyzer(func(ctx context.Context, prompt string) (string, error) {
			return "", boom
		}, AnalyzerOptions{Model: "m"})

		_, err := a.Analyze(context.Background(), "p")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("タイムアウトはエラーとして扱われること", func(t *testing.T) {
		a := newGeminiAnalyzer(func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}, AnalyzerOptions{Model: "m", Timeout: 10 * time.Millisecond})

		_, err := a.Analyze(context.Background(), "p")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("キャンセル済みのコンテキストではリミッター待機で失敗すること", func(t *testing.T) {
		a := newGeminiAnalyzer(func(ctx context.Context, prompt string) (string, error) {
			return "text", nil
		}, AnalyzerOptions{Model: "m", RateInterval: time.Hour})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := a.Analyze(ctx, "p")
		assert.Error(t, err)
	})
}

func TestGeminiAnalyzer_CacheKey(t *testing.T) {
	a := newGeminiAnalyzer(nil, AnalyzerOptions{Model: "m1"})
	b := newGeminiAnalyzer(nil, AnalyzerOptions{Model: "m2"})

	assert.Equal(t, a.cacheKey("p"), a.cacheKey("p"))
	assert.NotEqual(t, a.cacheKey("p"), a.cacheKey("q"))
	assert.NotEqual(t, a.cacheKey("p"), b.cacheKey("p"))
}

func TestNewGeminiAnalyzer_NilClient(t *testing.T) {
	_, err := NewGeminiAnalyzer(nil, AnalyzerOptions{Model: "m"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeminiRenderer_Render(t *testing.T) {
	t.Run("参照画像がない場合は単一パネル生成を使うこと", func(t *testing.T) {
		gen := new(mockImageGenerator)
		gen.On("GenerateMangaPanel", mock.Anything, mock.MatchedBy(func(req imagedom.ImageGenerationRequest) bool {
			return req.Prompt == "a castle" && req.Seed == nil && req.AspectRatio == "16:9"
		})).Return(&imagedom.ImageResponse{Data: []byte("png"), MimeType: "image/png"}, nil).Once()

		r, err := NewGeminiRenderer(gen, RendererOptions{})
		require.NoError(t, err)

		res, err := r.Render(context.Background(), RenderRequest{Prompt: "a castle", AspectRatio: "16:9"})
		require.NoError(t, err)
		assert.Equal(t, []byte("png"), res.Data)
		assert.Equal(t, "image/png", res.MimeType)
		gen.AssertExpectations(t)
		gen.AssertNotCalled(t, "GenerateMangaPage", mock.Anything, mock.Anything)
	})

	t.Run("参照画像がある場合は複数参照生成を使いシードを渡すこと", func(t *testing.T) {
		local := filepath.Join(t.TempDir(), "luna.png")
		require.NoError(t, asset.WritePlaceholder(local, "Character: Luna"))

		uploader := new(mockUploader)
		uploader.On("UploadFile", mock.Anything, mock.Anything, "image/png", "luna.png").
			Return("https://generativelanguage.googleapis.com/v1beta/files/luna", "files/luna", nil).Once()

		gen := new(mockImageGenerator)
		gen.On("GenerateMangaPage", mock.Anything, mock.MatchedBy(func(req imagedom.ImagePageRequest) bool {
			return allFetchable(req) && len(req.ReferenceURLs) == 2 &&
				req.FileAPIURIs[1] == "https://generativelanguage.googleapis.com/v1beta/files/luna" &&
				req.Seed != nil && *req.Seed == 42 && req.NegativePrompt == "neg"
		})).Return(&imagedom.ImageResponse{Data: []byte("img")}, nil).Twice()

		r, err := NewGeminiRenderer(gen, RendererOptions{Uploader: uploader})
		require.NoError(t, err)

		req := RenderRequest{
			Prompt:         "panel",
			NegativePrompt: "neg",
			References:     []string{"https://example.com/forest.png", local},
			Seed:           42,
		}
		res, err := r.Render(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []byte("img"), res.Data)
		assert.NotEmpty(t, res.MimeType, "MIME タイプが空の場合はデータから判定されること")

		_, err = r.Render(context.Background(), req)
		require.NoError(t, err)

		gen.AssertExpectations(t)
		uploader.AssertExpectations(t) // 同じファイルのアップロードは1回だけ
	})

	t.Run("取得できないローカル参照は生成エンジンに渡さないこと", func(t *testing.T) {
		local := filepath.Join(t.TempDir(), "luna.png")
		require.NoError(t, asset.WritePlaceholder(local, "Character: Luna"))

		gen := new(mockImageGenerator)
		gen.On("GenerateMangaPanel", mock.Anything, mock.Anything).
			Return(&imagedom.ImageResponse{Data: []byte("img")}, nil).Once()

		r, err := NewGeminiRenderer(gen, RendererOptions{})
		require.NoError(t, err)

		_, err = r.Render(context.Background(), RenderRequest{
			Prompt:     "panel",
			References: []string{local, "comic_output/characters/missing.png"},
		})
		require.NoError(t, err)
		gen.AssertExpectations(t)
		gen.AssertNotCalled(t, "GenerateMangaPage", mock.Anything, mock.Anything)
	})

	t.Run("アップロードに失敗した参照だけが除外されること", func(t *testing.T) {
		local := filepath.Join(t.TempDir(), "cave.png")
		require.NoError(t, asset.WritePlaceholder(local, "Location: Cave"))

		uploader := new(mockUploader)
		uploader.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", "", errors.New("permission denied"))

		gen := new(mockImageGenerator)
		gen.On("GenerateMangaPage", mock.Anything, mock.MatchedBy(func(req imagedom.ImagePageRequest) bool {
			return allFetchable(req) && len(req.ReferenceURLs) == 1
		})).Return(&imagedom.ImageResponse{Data: []byte("img")}, nil).Once()

		r, err := NewGeminiRenderer(gen, RendererOptions{Uploader: uploader})
		require.NoError(t, err)

		_, err = r.Render(context.Background(), RenderRequest{
			Prompt:     "panel",
			References: []string{"gs://bucket/luna.png", local},
		})
		require.NoError(t, err)
		gen.AssertExpectations(t)
	})

	t.Run("生成エラーはそのまま伝播すること", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		gen := new(mockImageGenerator)
		gen.On("GenerateMangaPanel", mock.Anything, mock.Anything).Return(nil, boom)

		r, err := NewGeminiRenderer(gen, RendererOptions{})
		require.NoError(t, err)

		_, err = r.Render(context.Background(), RenderRequest{Prompt: "p"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil 応答は空の結果として返ること", func(t *testing.T) {
		gen := new(mockImageGenerator)
		gen.On("GenerateMangaPanel", mock.Anything, mock.Anything).Return(nil, nil)

		r, err := NewGeminiRenderer(gen, RendererOptions{})
		require.NoError(t, err)

		res, err := r.Render(context.Background(), RenderRequest{Prompt: "p"})
		require.NoError(t, err)
		assert.Empty(t, res.Data)
	})
}

func TestNewGeminiRenderer_NilGenerator(t *testing.T) {
	_, err := NewGeminiRenderer(nil, RendererOptions{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
