package city

// Kiev は並び順で優先される都市名です。
const Kiev = "Kiev"

// City は都市エンティティです。
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// New は未永続化の都市を生成します。
func New(name string) *City {
	return &City{Name: name}
}

// Clone は都市のコピーを返します。
func (c *City) Clone() *City {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
