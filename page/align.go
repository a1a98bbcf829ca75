package page

//go:generate go tool go-enum -f=$GOFILE --marshal --names

// Horizontal alignment of text within a row or a window.
// ENUM(left, right, centre)
type Align int
