package keymap

// Binding maps keys to an action, with documentation for help generation.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "browser"
}

// All contains the default key bindings. Descriptions are short because the
// UI renders them verbatim in its footer help lines.
var All = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "quit", "global"},

	// Playback
	{ActionPlayPause, []string{" "}, "play/pause", "playback"},
	{ActionStop, []string{"x"}, "stop", "playback"},
	{ActionNextChapter, []string{"n"}, "next chapter", "playback"},
	{ActionPrevChapter, []string{"p"}, "prev chapter", "playback"},
	{ActionSkipForward, []string{"right"}, "skip ahead", "playback"},
	{ActionSkipBackward, []string{"left"}, "skip back", "playback"},
	{ActionSpeedUp, []string{"+", "="}, "faster", "playback"},
	{ActionSpeedDown, []string{"-"}, "slower", "playback"},
	{ActionSleepTimer, []string{"t"}, "sleep timer", "playback"},
	{ActionToggleDisplay, []string{"e"}, "expand bar", "playback"},

	// Browser
	{ActionMoveUp, []string{"k", "up"}, "up", "browser"},
	{ActionMoveDown, []string{"j", "down"}, "down", "browser"},
	{ActionSelect, []string{"enter"}, "open", "browser"},
	{ActionBack, []string{"esc", "backspace"}, "back", "browser"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
