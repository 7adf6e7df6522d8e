package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Mahi11313/RoastMyStartup-main/internal/model"
)

// levelInstructions はロースト強度ごとのトーン指示。
var levelInstructions = map[model.RoastLevel]string{
	model.RoastLevelSoft:    "Be gentle but honest. Encourage the founder while pointing out real weaknesses with tact.",
	model.RoastLevelMedium:  "Be direct and sarcastic. Do not sugarcoat problems, but keep the criticism constructive.",
	model.RoastLevelNuclear: "Be absolutely brutal and merciless. Tear the idea apart like a cynical VC who has seen a thousand identical pitches fail.",
}

// temperatureFor はロースト強度に応じた生成温度を返す。
// 強度が上がるほど表現の振れ幅を許容する。
func temperatureFor(level model.RoastLevel) float64 {
	switch level {
	case model.RoastLevelSoft:
		return 0.7
	case model.RoastLevelNuclear:
		return 1.0
	default:
		return 0.9
	}
}

// buildPrompt はロースト依頼から生成プロンプトを組み立てる。
// 出力形式はJSONで固定し、後段のパースを安定させる。
func buildPrompt(req *model.RoastRequest) string {
	var b strings.Builder

	b.WriteString("You are a brutally honest startup critic. Roast the following startup idea.\n\n")
	fmt.Fprintf(&b, "Roast level: %s. %s\n\n", req.RoastLevel, levelInstructions[req.RoastLevel])
	fmt.Fprintf(&b, "Startup name: %s\n", req.StartupName)
	fmt.Fprintf(&b, "Idea: %s\n", req.IdeaDescription)
	if req.TargetUsers != "" {
		fmt.Fprintf(&b, "Target users: %s\n", req.TargetUsers)
	}
	if req.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", req.Budget)
	}

	b.WriteString(`
Respond with ONLY a JSON object with exactly these keys:
{
  "brutal_roast": "the roast itself, matching the requested level",
  "honest_feedback": "genuinely useful feedback behind the roast",
  "competitor_reality_check": "who already does this and why that matters",
  "survival_tips": ["3 to 5 concrete tips as an array of strings"],
  "pitch_rewrite": "a one-paragraph rewrite of the pitch that would actually work"
}`)

	return b.String()
}

// parseRoastResponse はモデル出力のテキストをRoastResponseにパースする。
// モデルがコードフェンスで囲んで返すケースを許容する。
func parseRoastResponse(text string) (*model.RoastResponse, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var resp model.RoastResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("生成結果のJSONパースに失敗しました: %w", err)
	}

	if resp.BrutalRoast == "" || resp.HonestFeedback == "" {
		return nil, fmt.Errorf("生成結果に必須フィールドが含まれていません")
	}

	return &resp, nil
}
