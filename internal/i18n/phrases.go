package i18n

var english = map[string]string{
	"ADMIN_RULE_TRANS_TRENDUP":                    "trend up",
	"ADMIN_RULE_TRANS_TRENDUP_AND_THRESHOLDMAX":   "trend up and value >= {{thresholdMax}}",
	"ADMIN_RULE_TRANS_TRESHOLDMAX":                "value >= {{thresholdMax}}",
	"ADMIN_RULE_TRANS_TRENDDOWN":                  "trend down",
	"ADMIN_RULE_TRANS_TRENDDOWN_AND_THRESHOLDMIN": "trend down and value <= {{thresholdMin}}",
	"ADMIN_RULE_TRANS_TRESHOLDMIN":                "value <= {{thresholdMin}}",
	"ADMIN_RULE_TRANS_OR":                         " or ",
	"ADMIN_RULE_TRANS_TPL":                        "Alert when: {{text}}",

	"ADMIN_RULE_POST_ADD_TEXT":              "Rule added, it takes effect within {{Interval}} seconds.",
	"ADMIN_RULE_POST_ADD_CHECK_FAILED_TEXT": "Rule added, but it matches no supported metric yet. Check again after {{Interval}} seconds.",
	"ADMIN_RULE_NUM_METRICS_WARN":           "Metric counts refresh every {{interval}} seconds; more than {{threshold}} hits per interval are throttled.",
	"ADMIN_RULE_DELETE_TEXT":                "Delete this rule?",
	"ADMIN_USER_REMOVE_TEXT":                "Remove this user from the project?",
	"ADMIN_USER_DELETE_TEXT":                "Delete this user?",
	"ADMIN_PROJECT_DELETE_TEXT":             "Delete this project?",
	"ADMIN_TEAM_DELETE_TEXT":                "Delete this team?",
	"ADMIN_WEBHOOK_DELETE_TEXT":             "Delete this webhook?",
	"ADMIN_WEBHOOK_REMOVE_TEXT":             "Remove this webhook from the project?",
	"ADMIN_RULE_IMPORT_OK":                  "imported",

	"SAVE_SUCCESS":   "Saved.",
	"DELETE_SUCCESS": "Deleted.",
	"YES":            "Yes",
	"NO":             "No",

	"METRIC_CHART_TEXT":        "graphite",
	"METRIC_METRIC_RULES_TEXT": "rules",
	"METRIC_PAUSED":            "paused",
	"METRIC_LIVE":              "live",
}

var simplifiedChinese = map[string]string{
	"ADMIN_RULE_TRANS_TRENDUP":                    "趋势上升",
	"ADMIN_RULE_TRANS_TRENDUP_AND_THRESHOLDMAX":   "趋势上升且数值 >= {{thresholdMax}}",
	"ADMIN_RULE_TRANS_TRESHOLDMAX":                "数值 >= {{thresholdMax}}",
	"ADMIN_RULE_TRANS_TRENDDOWN":                  "趋势下降",
	"ADMIN_RULE_TRANS_TRENDDOWN_AND_THRESHOLDMIN": "趋势下降且数值 <= {{thresholdMin}}",
	"ADMIN_RULE_TRANS_TRESHOLDMIN":                "数值 <= {{thresholdMin}}",
	"ADMIN_RULE_TRANS_OR":                         " 或 ",
	"ADMIN_RULE_TRANS_TPL":                        "报警条件: {{text}}",

	"ADMIN_RULE_POST_ADD_TEXT":              "规则已添加, {{Interval}} 秒内生效.",
	"ADMIN_RULE_POST_ADD_CHECK_FAILED_TEXT": "规则已添加, 但暂未匹配到支持的指标, 请 {{Interval}} 秒后再检查.",
	"ADMIN_RULE_DELETE_TEXT":                "删除这条规则?",
	"ADMIN_USER_REMOVE_TEXT":                "从项目中移除该用户?",
	"ADMIN_USER_DELETE_TEXT":                "删除这个用户?",
	"ADMIN_PROJECT_DELETE_TEXT":             "删除这个项目?",
	"ADMIN_TEAM_DELETE_TEXT":                "删除这个团队?",
	"ADMIN_WEBHOOK_DELETE_TEXT":             "删除这个 webhook?",
	"ADMIN_WEBHOOK_REMOVE_TEXT":             "从项目中移除该 webhook?",
	"ADMIN_RULE_IMPORT_OK":                  "已导入",

	"SAVE_SUCCESS":   "保存成功",
	"DELETE_SUCCESS": "删除成功",
	"YES":            "是",
	"NO":             "否",

	"METRIC_CHART_TEXT":        "graphite",
	"METRIC_METRIC_RULES_TEXT": "规则",
	"METRIC_PAUSED":            "已暂停",
	"METRIC_LIVE":              "实时",
}
