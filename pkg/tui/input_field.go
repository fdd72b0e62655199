package tui

// InputField is an immutable single-line editor state. Mutating operations
// return a new value, which keeps key handling trivially testable.
type InputField struct {
	Content []rune
	Cursor  int
	Width   int
}

func NewInputField(width int) InputField {
	return InputField{Width: width}
}

func (inf InputField) String() string {
	return string(inf.Content)
}

func (inf InputField) WithWidth(width int) InputField {
	inf.Width = width
	return inf
}

func (inf InputField) InsertRune(r rune) InputField {
	content := make([]rune, 0, len(inf.Content)+1)
	content = append(content, inf.Content[:inf.Cursor]...)
	content = append(content, r)
	content = append(content, inf.Content[inf.Cursor:]...)

	return InputField{Content: content, Cursor: inf.Cursor + 1, Width: inf.Width}
}

func (inf InputField) DeleteBackward() InputField {
	if inf.Cursor == 0 {
		return inf
	}

	content := make([]rune, 0, len(inf.Content)-1)
	content = append(content, inf.Content[:inf.Cursor-1]...)
	content = append(content, inf.Content[inf.Cursor:]...)

	return InputField{Content: content, Cursor: inf.Cursor - 1, Width: inf.Width}
}

func (inf InputField) MoveLeft() InputField {
	if inf.Cursor > 0 {
		inf.Cursor--
	}
	return inf
}

func (inf InputField) MoveRight() InputField {
	if inf.Cursor < len(inf.Content) {
		inf.Cursor++
	}
	return inf
}

func (inf InputField) MoveHome() InputField {
	inf.Cursor = 0
	return inf
}

func (inf InputField) MoveEnd() InputField {
	inf.Cursor = len(inf.Content)
	return inf
}

func (inf InputField) Clear() InputField {
	return InputField{Width: inf.Width}
}
