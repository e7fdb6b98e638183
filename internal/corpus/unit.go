package corpus

import (
	"crypto/sha256"
	"encoding/hex"
)

// Kind 语料单元的来源类别
type Kind string

const (
	KindInventory Kind = "inventario"
	KindRecipe    Kind = "receta"
	KindGuardrail Kind = "guardrail"
)

// Metadata 语料单元的出处
type Metadata struct {
	Kind Kind   `json:"source"`
	ID   string `json:"id,omitempty"`
	Name string `json:"nombre,omitempty"`
	File string `json:"archivo,omitempty"`
	Row  string `json:"fila,omitempty"`
}

// Unit 一个可检索的文本块，构建后不再修改
type Unit struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

const (
	metaKind = "source"
	metaID   = "id"
	metaName = "nombre"
	metaFile = "archivo"
	metaRow  = "fila"
)

// Map 转为向量库使用的扁平元数据
func (m Metadata) Map() map[string]string {
	out := map[string]string{metaKind: string(m.Kind)}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set(metaID, m.ID)
	set(metaName, m.Name)
	set(metaFile, m.File)
	set(metaRow, m.Row)
	return out
}

// MetadataFromMap Map 的逆操作
func MetadataFromMap(m map[string]string) Metadata {
	return Metadata{
		Kind: Kind(m[metaKind]),
		ID:   m[metaID],
		Name: m[metaName],
		File: m[metaFile],
		Row:  m[metaRow],
	}
}

// Hash 语料内容指纹，顺序敏感
func Hash(units []Unit) string {
	h := sha256.New()
	for _, u := range units {
		for _, s := range []string{u.Text, string(u.Metadata.Kind), u.Metadata.ID, u.Metadata.Name, u.Metadata.File, u.Metadata.Row} {
			h.Write([]byte(s))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Texts 所有单元的正文
func Texts(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}
