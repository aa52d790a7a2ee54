package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-novel-comic-kit/pkg/asset"
)

const (
	// File API 上のファイルは48時間で失効するため、それより短く保持します。
	defaultUploadCacheTTL = 24 * time.Hour
	uploadCacheCleanup    = 1 * time.Hour
)

// FileUploader は画像データを Gemini File API にアップロードし、URI とファイル名を返します。
// go-gemini-client の GenerativeModel がこれを満たすのだ。
type FileUploader interface {
	UploadFile(ctx context.Context, r io.Reader, mimeType, displayName string) (string, string, error)
}

// referenceSet は生成エンジンに渡す参照画像の組です。
// URLs[i] と FileURIs[i] は同じ画像を指し、FileURIs[i] が空でなければそちらが優先されます。
type referenceSet struct {
	URLs     []string
	FileURIs []string
	Skipped  int
}

// referenceResolver はローカルのアセットを File API にアップロードし、生成エンジンが取得できる参照に変換します。
type referenceResolver struct {
	uploader FileUploader
	uploads  *cache.Cache // path@mtime -> File API URI
	sf       singleflight.Group
}

func newReferenceResolver(uploader FileUploader, ttl time.Duration) *referenceResolver {
	if ttl <= 0 {
		ttl = defaultUploadCacheTTL
	}
	return &referenceResolver{
		uploader: uploader,
		uploads:  cache.New(ttl, uploadCacheCleanup),
	}
}

// IsRemoteReference は参照が http(s) または gs:// の URL で、生成エンジンが直接取得できるかを判定します。
func IsRemoteReference(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "gs":
		return true
	default:
		return false
	}
}

// resolve はリモート URL をそのまま残し、ローカルファイルはアップロードした URI に置き換えます。
// アップロードできなかった参照は警告を出して除外するのだ。
func (r *referenceResolver) resolve(ctx context.Context, refs []string) referenceSet {
	var set referenceSet
	for _, ref := range refs {
		if IsRemoteReference(ref) {
			set.URLs = append(set.URLs, ref)
			set.FileURIs = append(set.FileURIs, "")
			continue
		}

		uri, err := r.upload(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "参照画像をアップロードできなかったため除外します",
				slog.String("reference", ref),
				slog.Any("error", err),
			)
			set.Skipped++
			continue
		}
		set.URLs = append(set.URLs, ref)
		set.FileURIs = append(set.FileURIs, uri)
	}
	return set
}

// upload はローカル画像を File API にアップロードします。同じファイル（パスと更新時刻）は一度だけアップロードされます。
func (r *referenceResolver) upload(ctx context.Context, path string) (string, error) {
	if r.uploader == nil {
		return "", fmt.Errorf("ローカル参照画像のアップロード先がありません: %w", ErrUnavailable)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("参照画像が見つかりません: %w", err)
	}
	key := path + "@" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if uri, ok := r.uploads.Get(key); ok {
		return uri.(string), nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		if uri, ok := r.uploads.Get(key); ok {
			return uri.(string), nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("参照画像の読み込みに失敗しました: %w", err)
		}
		uri, name, err := r.uploader.UploadFile(ctx, bytes.NewReader(data), asset.DetectMimeType(data), filepath.Base(path))
		if err != nil {
			return "", fmt.Errorf("参照画像のアップロードに失敗しました: %w", err)
		}
		if uri == "" {
			return "", fmt.Errorf("参照画像のアップロード結果が空です (%s): %w", path, ErrEmptyResponse)
		}

		slog.DebugContext(ctx, "参照画像をアップロードしました",
			slog.String("path", path),
			slog.String("file", name),
		)
		r.uploads.SetDefault(key, uri)
		return uri, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
