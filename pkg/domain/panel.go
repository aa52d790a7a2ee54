package domain

// PanelType はパネルの演出種別です。
type PanelType string

const (
	PanelEstablishing PanelType = "establishing"
	PanelAction       PanelType = "action"
	PanelReaction     PanelType = "reaction"
	PanelTransition   PanelType = "transition"
	PanelClimax       PanelType = "climax"
)

// CameraAngle はパネルのカメラアングルです。
type CameraAngle string

const (
	AngleWide    CameraAngle = "wide"
	AngleMedium  CameraAngle = "medium"
	AngleClose   CameraAngle = "close"
	AngleBirdEye CameraAngle = "bird_eye"
	AngleWormEye CameraAngle = "worm_eye"
)

// angleShots はカメラアングルに対応する構図の表現です。
var angleShots = map[CameraAngle]string{
	AngleWide:    "Wide shot",
	AngleMedium:  "Medium shot",
	AngleClose:   "Close-up shot",
	AngleBirdEye: "Bird's-eye view",
	AngleWormEye: "Worm's-eye view",
}

// Shot はアングルに対応する構図の表現を返します。未知のアングルは Medium shot です。
func (a CameraAngle) Shot() string {
	if shot, ok := angleShots[a]; ok {
		return shot
	}
	return angleShots[AngleMedium]
}

// Panel はシーン内の1コマを表します。
type Panel struct {
	SceneID           string      `json:"scene_id"`
	Description       string      `json:"description"`
	Characters        []string    `json:"characters"`
	Location          string      `json:"location"`
	CompositionPrompt string      `json:"composition_prompt"`
	PanelType         PanelType   `json:"panel_type"`
	CameraAngle       CameraAngle `json:"camera_angle"`
	RedundancyScore   float64     `json:"redundancy_score"`

	// Toggled は冗長判定によりアングルと種別が反転されたことを示します。
	// このとき CompositionPrompt は反転前の構図のままです。
	Toggled           bool     `json:"toggled,omitempty"`
	RedundancyFactors []string `json:"redundancy_factors,omitempty"`
}

// Panels はパネルの順序付きリストなのだ。
type Panels []Panel

// Toggle は冗長と判定されたパネルのアングルと種別を一度だけ反転させます。
// wide は close に、それ以外は wide に。establishing は action に、それ以外は establishing になります。
func (p *Panel) Toggle() {
	if p.CameraAngle == AngleWide {
		p.CameraAngle = AngleClose
	} else {
		p.CameraAngle = AngleWide
	}
	if p.PanelType == PanelEstablishing {
		p.PanelType = PanelAction
	} else {
		p.PanelType = PanelEstablishing
	}
	p.Toggled = true
}

// UniqueCharacters はパネル群に登場するキャラクター名を出現順に重複なく返します。
func (ps Panels) UniqueCharacters() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range ps {
		for _, c := range p.Characters {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			names = append(names, c)
		}
	}
	return names
}

// Clone はスライスを含めたパネルの複製を返します。
func (p Panel) Clone() Panel {
	if p.Characters != nil {
		p.Characters = append([]string(nil), p.Characters...)
	}
	if p.RedundancyFactors != nil {
		p.RedundancyFactors = append([]string(nil), p.RedundancyFactors...)
	}
	return p
}
