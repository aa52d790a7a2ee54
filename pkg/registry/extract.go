package registry

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shouni/go-novel-comic-kit/pkg/adapters"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/parser"
	"github.com/shouni/go-novel-comic-kit/pkg/prompts"
)

// 解析に失敗した場合に登録されるフォールバックのエンティティです。
const (
	FallbackCharacterDescription  = "The protagonist of the story"
	FallbackCharacterVisualTraits = "Generic appearance for testing"
	FallbackLocationDescription   = "The main setting of the story"
)

// ExtractEntities はチャプター本文からキャラクターとロケーションを抽出して登録します。
// コラボレーターが利用できない場合や応答が不正な場合は、フォールバックのエンティティを登録して返すのだ。
func (r *Registry) ExtractEntities(ctx context.Context, chapter string) ([]domain.Character, []domain.Location) {
	result, err := r.requestEntities(ctx, chapter)
	if err != nil {
		slog.WarnContext(ctx, "エンティティ抽出に失敗したため、フォールバックを使用します", slog.Any("error", err))
		r.observer.Fallback(ctx, adapters.StageEntities, err)
		result = fallbackEntities()
	}

	chars := make([]domain.Character, 0, len(result.Characters))
	for _, c := range result.Characters {
		char := r.UpsertCharacter(strings.TrimSpace(c.Name), c.Description, c.VisualTraits)
		slog.DebugContext(ctx, "キャラクターを登録しました", slog.String("character", char.String()))
		chars = append(chars, char)
	}
	locs := make([]domain.Location, 0, len(result.Locations))
	for _, l := range result.Locations {
		locs = append(locs, r.UpsertLocation(
			strings.TrimSpace(l.Name),
			l.Description,
			l.ParentLocation,
			domain.TransitionType(l.TransitionType),
		))
	}

	if err := r.Persist(); err != nil {
		slog.WarnContext(ctx, "レジストリの保存に失敗しました", slog.Any("error", err))
	}

	slog.InfoContext(ctx, "エンティティを登録しました",
		slog.Int("characters", len(chars)),
		slog.Int("locations", len(locs)),
	)
	return chars, locs
}

func (r *Registry) requestEntities(ctx context.Context, chapter string) (*parser.EntityResult, error) {
	prompt, err := r.analysisPrompt.Build(prompts.ModeEntities, prompts.TemplateData{
		InputText:       chapter,
		KnownCharacters: r.CharacterNames(),
		KnownLocations:  r.LocationNames(),
	})
	if err != nil {
		return nil, err
	}

	raw, err := r.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result parser.EntityResult
	if err := parser.Decode(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func fallbackEntities() *parser.EntityResult {
	return &parser.EntityResult{
		Characters: []parser.CharacterSpec{{
			Name:         domain.FallbackCharacterName,
			Description:  FallbackCharacterDescription,
			VisualTraits: FallbackCharacterVisualTraits,
		}},
		Locations: []parser.LocationSpec{{
			Name:           domain.FallbackLocationName,
			Description:    FallbackLocationDescription,
			TransitionType: string(domain.TransitionInterior),
		}},
	}
}
