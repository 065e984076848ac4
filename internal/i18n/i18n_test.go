package i18n

import (
	"testing"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/rules"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestLookup(t *testing.T) {
	assert.Equal(t, language.English, Lookup("").Tag)
	assert.Equal(t, language.English, Lookup("en").Tag)
	assert.Equal(t, language.SimplifiedChinese, Lookup("zh").Tag)
	assert.Equal(t, language.SimplifiedChinese, Lookup("zh-CN").Tag)
	assert.Equal(t, language.English, Lookup("!!").Tag)
}

func TestPhrase(t *testing.T) {
	c := Lookup("en")
	assert.Equal(t, "value >= 3", c.Phrase("ADMIN_RULE_TRANS_TRESHOLDMAX", map[string]string{"thresholdMax": "3"}))
	assert.Equal(t, "UNKNOWN_KEY", c.Phrase("UNKNOWN_KEY", nil))

	zh := Lookup("zh")
	assert.Equal(t, "Metric counts refresh every 10 seconds; more than 5 hits per interval are throttled.",
		zh.Phrase("ADMIN_RULE_NUM_METRICS_WARN", map[string]string{"interval": "10", "threshold": "5"}))
}

func TestCatalogsCoverSameKeys(t *testing.T) {
	for key := range simplifiedChinese {
		_, ok := english[key]
		assert.True(t, ok, "english catalog misses %s", key)
	}
}

func TestTranslateExpressionWithCatalog(t *testing.T) {
	rule := &banshee.Rule{TrendUp: true, ThresholdMax: 1.25, TrendDown: true}
	assert.Equal(t, "Alert when: trend up and value >= 1.25 or trend down",
		rules.TranslateExpression(rule, Lookup("en")))
	assert.Equal(t, "报警条件: 趋势上升且数值 >= 1.25 或 趋势下降",
		rules.TranslateExpression(rule, Lookup("zh")))
}
