package yaml_routes

// entry is one element of the top-level sequence. Exactly one field is set.
type entry struct {
	Component *componentEntry `yaml:"component"`
	From      *routeEntry     `yaml:"from"`
}

type componentEntry struct {
	Scheme string `yaml:"scheme"`
	// Type is optional; without it the existing component is configured.
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties"`
}

type routeEntry struct {
	URI         string `yaml:"uri"`
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Steps       []step `yaml:"steps"`
}

// step is one processing step. Exactly one field is set.
type step struct {
	To        *string `yaml:"to"`
	Log       *string `yaml:"log"`
	SetBody   *string `yaml:"setBody"`
	SetHeader *header `yaml:"setHeader"`
	Process   *string `yaml:"process"`
}

type header struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// call returns the route method and arguments of s.
func (s step) call() (string, []string, int) {
	var (
		method string
		args   []string
		set    int
	)
	if s.To != nil {
		method, args, set = "to", []string{*s.To}, set+1
	}
	if s.Log != nil {
		method, args, set = "log", []string{*s.Log}, set+1
	}
	if s.SetBody != nil {
		method, args, set = "setBody", []string{*s.SetBody}, set+1
	}
	if s.SetHeader != nil {
		method, args, set = "setHeader", []string{s.SetHeader.Name, s.SetHeader.Value}, set+1
	}
	if s.Process != nil {
		method, args, set = "process", []string{*s.Process}, set+1
	}
	return method, args, set
}
