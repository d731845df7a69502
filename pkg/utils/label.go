package utils

// 推荐链路中使用的标准 Label key。
const (
	LabelRecallSource = "recall_source" // content / u2i
	LabelRecallMetric = "recall_metric"
	LabelCFMetric     = "cf_metric"
	LabelFiltered     = "filtered"
	LabelColdStart    = "cold_start"
)

// Label 是推荐结果的解释信息：可解释、可追踪、可透传。
// 例如 recall_source=content 表示该节目来自内容推荐。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank / engine
}

// MergeLabel 用于合并同名 Label，保留历史：
// Value 以 '|' 累积，Source 以 ',' 累积。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
