package voice

import "strings"

// Info describes one prebuilt synthesis voice.
type Info struct {
	Name        string
	Description string
	Character   string
}

// Catalog is the fixed set of prebuilt voices offered by the synthesis
// backend, in a stable order used for fallback assignment.
var Catalog = []Info{
	{"Kore", "Firm and authoritative", "professional"},
	{"Puck", "Upbeat and cheerful", "energetic"},
	{"Charon", "Informative and clear", "narrator"},
	{"Zephyr", "Bright and friendly", "cheerful"},
	{"Fenrir", "Excitable and dynamic", "enthusiastic"},
	{"Enceladus", "Breathy and soft", "gentle"},
	{"Sulafat", "Warm and comforting", "warm"},
	{"Leda", "Youthful and light", "young"},
	{"Orus", "Deep and resonant", "deep"},
	{"Aoede", "Melodic and smooth", "melodic"},
	{"Callirrhoe", "Elegant and refined", "elegant"},
	{"Autonoe", "Calm and composed", "calm"},
	{"Iapetus", "Strong and commanding", "commanding"},
	{"Umbriel", "Mysterious and low", "mysterious"},
	{"Algieba", "Bright and articulate", "articulate"},
	{"Despina", "Sweet and gentle", "sweet"},
	{"Erinome", "Expressive and vivid", "expressive"},
	{"Algenib", "Clear and precise", "precise"},
	{"Rasalgethi", "Rich and warm", "rich"},
	{"Laomedeia", "Soft and soothing", "soothing"},
	{"Achernar", "Crisp and professional", "professional"},
	{"Alnilam", "Bold and confident", "confident"},
	{"Schedar", "Mature and steady", "mature"},
	{"Gacrux", "Friendly and approachable", "friendly"},
	{"Pulcherrima", "Beautiful and flowing", "flowing"},
	{"Achird", "Neutral and balanced", "neutral"},
	{"Zubenelgenubi", "Thoughtful and measured", "thoughtful"},
	{"Vindemiatrix", "Warm and inviting", "inviting"},
	{"Sadachbia", "Light and pleasant", "pleasant"},
	{"Sadaltager", "Gentle and kind", "kind"},
}

// Featured voices shown on the first page of the selection menu.
var Featured = []string{
	"Kore", "Puck", "Charon", "Zephyr", "Fenrir", "Enceladus", "Sulafat", "Orus",
}

// Default is the voice used for monologue synthesis when a chat has not
// picked one.
const Default = "Kore"

// PreviewText is spoken when a user samples a voice from the menu.
const PreviewText = "Hello! Nice to meet you. 你好！很高兴认识你。"

var byName = func() map[string]Info {
	m := make(map[string]Info, len(Catalog))
	for _, v := range Catalog {
		m[v.Name] = v
	}
	return m
}()

// IsValid reports whether name is a catalog voice.
func IsValid(name string) bool {
	_, ok := byName[name]
	return ok
}

// Description returns the style text for a catalog voice.
func Description(name string) string {
	if v, ok := byName[name]; ok {
		return v.Description
	}
	return "Unknown voice"
}

// Names returns all voice names in catalog order.
func Names() []string {
	out := make([]string, len(Catalog))
	for i, v := range Catalog {
		out[i] = v.Name
	}
	return out
}

// SuggestForTrait picks a voice matching a character trait keyword, for
// trait-based lookups like "/voice old man". Assignment correctness never
// depends on it.
func SuggestForTrait(trait string) string {
	trait = strings.ToLower(trait)
	for _, v := range Catalog {
		if v.Character == trait {
			return v.Name
		}
	}
	keyword := []struct {
		word  string
		voice string
	}{
		{"male", "Orus"},
		{"female", "Leda"},
		{"old", "Schedar"},
		{"young", "Leda"},
		{"serious", "Kore"},
		{"funny", "Puck"},
		{"angry", "Iapetus"},
		{"sad", "Enceladus"},
		{"happy", "Puck"},
		{"calm", "Autonoe"},
		{"excited", "Fenrir"},
	}
	for _, k := range keyword {
		if strings.Contains(trait, k.word) {
			return k.voice
		}
	}
	return "Charon"
}
