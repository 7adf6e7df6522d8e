package model

import "time"

// RoastLevel はロースト（酷評）の強度を表す。
type RoastLevel string

const (
	// RoastLevelSoft は手加減ありのローストを示す。
	RoastLevelSoft RoastLevel = "Soft"
	// RoastLevelMedium は標準的なローストを示す。
	RoastLevelMedium RoastLevel = "Medium"
	// RoastLevelNuclear は容赦のないローストを示す。
	RoastLevelNuclear RoastLevel = "Nuclear"
)

// Valid はロースト強度が定義済みの値かどうかを返す。
func (l RoastLevel) Valid() bool {
	switch l {
	case RoastLevelSoft, RoastLevelMedium, RoastLevelNuclear:
		return true
	}
	return false
}

// RoastRequest はスタートアップピッチの入力を表す。
type RoastRequest struct {
	StartupName     string     `json:"startup_name"`
	IdeaDescription string     `json:"idea_description"`
	TargetUsers     string     `json:"target_users"`
	Budget          string     `json:"budget"`
	RoastLevel      RoastLevel `json:"roast_level"`
}

// RoastResponse は生成AIが返すロースト結果を表す。
type RoastResponse struct {
	BrutalRoast            string   `json:"brutal_roast"`
	HonestFeedback         string   `json:"honest_feedback"`
	CompetitorRealityCheck string   `json:"competitor_reality_check"`
	SurvivalTips           []string `json:"survival_tips"`
	PitchRewrite           string   `json:"pitch_rewrite"`
}

// Roast は永続化されるローストレコードを表す。
// UserIDは任意参照であり、空文字列は匿名投稿を意味する。
// 匿名はエラー状態ではなく恒久的に有効な第一級の状態である。
type Roast struct {
	ID        string
	Request   RoastRequest
	Response  RoastResponse
	UserID    string
	CreatedAt time.Time
}

// RoastStats はロースト全体の統計情報を表す。
type RoastStats struct {
	TotalRoasts int            `json:"total_roasts"`
	RoastLevels map[string]int `json:"roast_levels"`
	LastUpdated time.Time      `json:"last_updated"`
}
