package normalizer

import (
	"strings"

	"github.com/liao/quimicai/internal/kb"
)

// SafetyRule 将禁止混合规则渲染为“¿Qué pasa si mezclo ...?”问答，
// 让用户的混合类问题在语义检索中更容易命中。警告原文逐字节保留，且总在最后一行
func SafetyRule(r kb.SafetyRule, names Names) string {
	var b block

	members := Participants(r, names)
	if len(members) > 0 {
		b.raw("¿Qué pasa si mezclo " + strings.Join(members, " + ") + "?")
		b.raw("PELIGRO DE MEZCLA: " + doNotMix(members))
	} else {
		b.raw("PELIGRO DE MEZCLA")
	}
	b.addIf("Resultado", r.Result)
	b.addIf("Peligro", r.Hazard)
	if msg, ok := r.Message(); ok {
		b.raw(officialWarnPref + msg)
	}
	return b.String()
}

// Participants 参与者的显示名，无法解析时保留原文
func Participants(r kb.SafetyRule, names Names) []string {
	members := r.Members()
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = mentionName(names, m)
	}
	return out
}

func doNotMix(members []string) string {
	if len(members) == 1 {
		return "No mezcles " + members[0] + "."
	}
	last := len(members) - 1
	return "No mezcles " + strings.Join(members[:last], ", ") + " con " + members[last] + "."
}
