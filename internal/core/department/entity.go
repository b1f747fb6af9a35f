package department

// Department は部署エンティティです。
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// New は未永続化の部署を生成します。
func New(name string) *Department {
	return &Department{Name: name}
}

// Clone は部署のコピーを返します。
func (d *Department) Clone() *Department {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}
