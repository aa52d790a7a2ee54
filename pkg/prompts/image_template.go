package prompts

const (
	// CinematicTags クオリティ向上のための共通タグ
	CinematicTags = "cinematic composition, high resolution, sharp focus"

	// MangaNegativePrompt Negative Prompt の定義
	MangaNegativePrompt = "speech bubble, dialogue balloon, text, alphabet, letters, words, signatures, watermark, username, low quality, distorted, bad anatomy"

	// LocationNegativePrompt は背景画像に人物が混入しないよう追加する Negative Prompt です。
	LocationNegativePrompt = "person, people, character, human, figure, silhouette, crowd, animal"

	characterTemplate = `Create a character portrait with these specifications:

Character: %s
Description: %s
Visual Traits: %s

Style: %s
Pose: Neutral standing pose, full body shot
Background: Simple, clean background
Quality: High resolution, detailed but not overly complex`

	locationTemplate = `Create a location/background with these specifications:

Location: %s
Description: %s
Type: %s

Style: %s
Perspective: Wide establishing shot
Quality: High resolution, detailed but not overly complex

IMPORTANT: This should be a PURE BACKGROUND/LOCATION image. Only show the
environment, architecture, landscape, or setting. Characters will be added
separately during panel composition.`

	reframedComposition = "%s for the %s beat, clearly different from the previous panels"

	panelTemplate = `Create a manhwa-style comic panel with these specifications:

Panel Description: %s
Composition: %s
Panel Type: %s
Camera Angle: %s

Characters: %s
Location: %s

Style: %s
Panel Format: Comic panel with clear borders
Quality: High resolution, detailed but not overly complex

IMPORTANT: Compose this panel by combining the separate character and location assets.
The location should serve as the background/environment, and characters should be
placed on top of it. Do not duplicate characters or add new ones. Use only the
specified character assets.`
)
