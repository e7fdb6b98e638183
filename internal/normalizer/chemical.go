package normalizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/liao/quimicai/internal/kb"
)

// Chemical 将化学品条目渲染为文本块
func Chemical(c kb.Chemical, names Names) string {
	var b block

	b.add("Ingrediente", orDefault(joinNonBlank(c.Names, ", "), c.ID))
	b.add("Categoría", orDefault(c.Category, DefaultCategory))
	b.addIf("Descripción", c.Description)
	b.addIf("Fórmula química", c.Formula)
	b.addIf("Nombre IUPAC", c.IUPACName)
	b.addIf("Número CAS", c.CAS)
	if !c.Safety.NFPA.IsZero() {
		b.add("NFPA 704", formatNFPA(c.Safety.NFPA))
	}
	b.addIf("ADVERTENCIA CRÍTICA", c.Safety.CriticalWarning)
	if !c.Safety.PetToxicity.IsZero() {
		b.add("Toxicidad en mascotas", formatPetToxicity(c.Safety.PetToxicity))
	}

	ph := orDefault(c.PH.String(), UnknownPH)
	if r := strings.TrimSpace(c.PHRange.String()); r != "" {
		ph += " (rango preciso: " + r + ")"
	}
	b.add("pH", ph)
	b.add("Toxicidad", orDefault(c.Safety.Toxicity.String(), UnknownToxicity))
	b.add("Incompatible con", orDefault(strings.Join(Incompatibilities(c.Safety.Incompatible, names), ", "), NotSpecified))
	b.addIf("Usos comunes", joinNonBlank(c.CommonUses, ", "))

	return b.String()
}

// Incompatibilities 解析不兼容列表中的标识符
func Incompatibilities(entries []string, names Names) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e == "" {
			continue
		}
		out = append(out, resolveEmbedded(names, e))
	}
	return out
}

func formatNFPA(n *kb.NFPA) string {
	slot := func(v kb.Scalar) string { return orDefault(v.String(), "?") }
	return fmt.Sprintf("Salud %s, Inflamabilidad %s, Inestabilidad %s",
		slot(n.Health), slot(n.Flammability), slot(n.Instability))
}

func formatPetToxicity(p kb.PetToxicity) string {
	if len(p.BySpecies) == 0 {
		return p.Text
	}
	species := make([]string, 0, len(p.BySpecies))
	for s := range p.BySpecies {
		species = append(species, s)
	}
	sort.Strings(species)

	parts := make([]string, 0, len(species))
	for _, s := range species {
		parts = append(parts, s+": "+p.BySpecies[s])
	}
	return strings.Join(parts, "; ")
}
