package preprocess

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "lowercases", in: "Hello World", want: "hello world"},
		{name: "keeps basic punctuation", in: "Really? Yes, really!", want: "really? yes, really!"},
		{name: "strips emoji", in: "great 😀👍 thanks", want: "great thanks"},
		{name: "strips special characters", in: "price: $500 (negotiable) @agent #deal", want: "price 500 negotiable agent deal"},
		{name: "collapses whitespace", in: "  too \t many\n\nspaces  ", want: "too many spaces"},
		{name: "only emoji", in: "🎉🎉🎉", want: ""},
		{name: "digits survive", in: "3 BHK near MG Road", want: "3 bhk near mg road"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "Hi there!! 😀  Can we MEET tomorrow?"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize not idempotent: %q != %q", twice, once)
	}
}
