package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Chemical 化学品库存条目（inventario_quimico）
type Chemical struct {
	ID          string   `json:"id"`
	Names       []string `json:"nombres"` // 第一个为规范名
	Category    string   `json:"categoria"`
	Description string   `json:"descripcion"`
	PH          Scalar   `json:"ph"`
	PHRange     Scalar   `json:"ph_rango"`
	Formula     string   `json:"formula"`
	IUPACName   string   `json:"nombre_iupac"`
	CAS         string   `json:"cas"`
	Safety      Safety   `json:"seguridad"`
	CommonUses  []string `json:"usos_comunes"`
}

type Safety struct {
	Toxicity        Scalar      `json:"toxicidad"`
	Incompatible    []string    `json:"incompatible_con"`
	NFPA            *NFPA       `json:"nfpa_704"`
	CriticalWarning string      `json:"advertencia_critica"`
	PetToxicity     PetToxicity `json:"toxicidad_mascotas"`
}

// NFPA NFPA 704 危险菱形（健康/可燃性/不稳定性）
type NFPA struct {
	Health       Scalar `json:"salud"`
	Flammability Scalar `json:"inflamabilidad"`
	Instability  Scalar `json:"inestabilidad"`
}

func (n *NFPA) IsZero() bool {
	return n == nil || (n.Health == "" && n.Flammability == "" && n.Instability == "")
}

// Recipe 推荐配方（recetas_sugeridas）
type Recipe struct {
	ID              string       `json:"id_receta"`
	Name            string       `json:"nombre"`
	Category        string       `json:"categoria"`
	Ingredients     []Ingredient `json:"ingredientes"`
	Instructions    string       `json:"instrucciones"`
	Preparation     string       `json:"preparacion"`
	Warnings        string       `json:"advertencias"`
	SafetyNotes     string       `json:"notas_seguridad"`
	KeyCombinations string       `json:"combinaciones_clave"`
	SourceFile      string       `json:"archivo_origen"`
	SourceRow       Scalar       `json:"fila_origen"`
}

// InstructionsText 优先 instrucciones，缺失时才用 preparacion
func (r *Recipe) InstructionsText() string {
	return firstPresent(r.Instructions, r.Preparation)
}

// WarningsText 优先 advertencias，缺失时才用 notas_seguridad
func (r *Recipe) WarningsText() string {
	return firstPresent(r.Warnings, r.SafetyNotes)
}

// Ingredient 配方成分：结构化 {id, cantidad} 或自由文本
type Ingredient struct {
	ID       string
	Quantity string
	Text     string
}

// Structured 是否为结构化 {id, cantidad}
func (i Ingredient) Structured() bool {
	return i.Text == "" && i.ID != ""
}

func (i *Ingredient) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] != '{' {
		var s Scalar
		if err := s.UnmarshalJSON(b); err != nil {
			return fmt.Errorf("ingredient: %w", err)
		}
		i.Text = string(s)
		return nil
	}

	var raw struct {
		ID       Scalar `json:"id"`
		Quantity Scalar `json:"cantidad"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("ingredient: %w", err)
	}
	i.ID = string(raw.ID)
	i.Quantity = string(raw.Quantity)
	if i.ID == "" {
		// 没有 id 的对象只保留数量原文
		i.Text = i.Quantity
		i.Quantity = ""
	}
	return nil
}

// SafetyRule 禁止混合规则（reglas_prohibidas_guardrails）
type SafetyRule struct {
	ID           string   `json:"id"`
	Participants []string `json:"ingredientes"`
	IngredientA  string   `json:"ingrediente_A"`
	IngredientB  string   `json:"ingrediente_B"`
	Result       string   `json:"resultado"`
	Hazard       string   `json:"peligro"`
	UserMessage  *string  `json:"mensaje_usuario"`
	Warning      *string  `json:"advertencia"`
}

// Members 参与者：优先列表形状，否则旧的 A/B 形状
func (r *SafetyRule) Members() []string {
	src := r.Participants
	if len(nonBlank(src)) == 0 {
		src = []string{r.IngredientA, r.IngredientB}
	}
	return nonBlank(src)
}

// Message 面向用户的警告原文，不做任何修改
func (r *SafetyRule) Message() (string, bool) {
	for _, m := range []*string{r.UserMessage, r.Warning} {
		if m != nil && strings.TrimSpace(*m) != "" {
			return *m, true
		}
	}
	return "", false
}

// Scalar 既可能是 JSON 数字也可能是字符串的值，保留字面文本
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*s = ""
	case b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(strings.TrimSpace(str))
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("expected scalar, got %s", b[:1])
	default:
		*s = Scalar(b)
	}
	return nil
}

func (s Scalar) String() string { return string(s) }

// PetToxicity 宠物毒性：单值或按物种映射
type PetToxicity struct {
	Text      string
	BySpecies map[string]string
}

func (p PetToxicity) IsZero() bool {
	return p.Text == "" && len(p.BySpecies) == 0
}

func (p *PetToxicity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var m map[string]Scalar
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("pet toxicity: %w", err)
		}
		p.BySpecies = make(map[string]string, len(m))
		for k, v := range m {
			if k = strings.TrimSpace(k); k != "" && v != "" {
				p.BySpecies[k] = string(v)
			}
		}
		return nil
	}
	var s Scalar
	if err := s.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("pet toxicity: %w", err)
	}
	p.Text = string(s)
	return nil
}

func firstPresent(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonBlank(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
