package session

// Kind groups keypad buttons.
type Kind string

const (
	KindNumber   Kind = "number"
	KindOperator Kind = "operator"
	KindFunction Kind = "function"
	KindConstant Kind = "constant"
	KindAction   Kind = "action"
)

const (
	KeyClear  = "AC"
	KeyDelete = "DEL"
	KeyEquals = "="
	KeyPoint  = "."
)

// Button is one keypad key: the label shown to the user and the value it
// appends to the display.
type Button struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Kind  Kind   `json:"kind"`
}

// Buttons is the keypad in layout order.
var Buttons = []Button{
	{"sin", "sin(", KindFunction},
	{"cos", "cos(", KindFunction},
	{"tan", "tan(", KindFunction},
	{"log", "log10(", KindFunction},
	{"ln", "log(", KindFunction},
	{"π", "PI", KindConstant},
	{"e", "E", KindConstant},
	{"^", "^", KindOperator},
	{"√", "sqrt(", KindFunction},
	{"(", "(", KindOperator},
	{")", ")", KindOperator},
	{"!", "!", KindFunction},
	{"7", "7", KindNumber},
	{"8", "8", KindNumber},
	{"9", "9", KindNumber},
	{"÷", "/", KindOperator},
	{"4", "4", KindNumber},
	{"5", "5", KindNumber},
	{"6", "6", KindNumber},
	{"×", "*", KindOperator},
	{"1", "1", KindNumber},
	{"2", "2", KindNumber},
	{"3", "3", KindNumber},
	{"−", "-", KindOperator},
	{"0", "0", KindNumber},
	{".", KeyPoint, KindNumber},
	{"=", KeyEquals, KindAction},
	{"+", "+", KindOperator},
	{"AC", KeyClear, KindAction},
	{"DEL", KeyDelete, KindAction},
}

var (
	byValue = map[string]Button{}
	byLabel = map[string]Button{}
)

func init() {
	for _, b := range Buttons {
		byValue[b.Value] = b
		byLabel[b.Label] = b
	}
}

// Lookup resolves a key given either as a button value or as its label.
// Values win, so "log(" is the natural log and "log" is log10.
func Lookup(key string) (Button, bool) {
	if b, ok := byValue[key]; ok {
		return b, true
	}
	b, ok := byLabel[key]
	return b, ok
}
