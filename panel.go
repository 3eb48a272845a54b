package sharpmem

// Panel is the geometry of a memory LCD model.
type Panel struct {
	Name   string
	Width  int
	Height int
}

// Known panels.
var (
	LS013B4DN04 = Panel{"LS013B4DN04", 96, 96}
	LS013B7DH05 = Panel{"LS013B7DH05", 144, 168}
	LS012B7DD06 = Panel{"LS012B7DD06", 240, 240}
	LS027B7DH01 = Panel{"LS027B7DH01", 400, 240}
	LS044Q7DH01 = Panel{"LS044Q7DH01", 320, 240}
)

// Panels lists the known panels by name.
var Panels = map[string]Panel{
	LS013B4DN04.Name: LS013B4DN04,
	LS013B7DH05.Name: LS013B7DH05,
	LS012B7DD06.Name: LS012B7DD06,
	LS027B7DH01.Name: LS027B7DH01,
	LS044Q7DH01.Name: LS044Q7DH01,
}

// Config returns a display configuration for the panel.
func (p Panel) Config() *Config {
	return &Config{
		Width:  p.Width,
		Height: p.Height,
	}
}
