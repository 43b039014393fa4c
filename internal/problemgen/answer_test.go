package problemgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/questgen/internal/taxonomy"
)

func TestCheckAnswer(t *testing.T) {
	short := func(answer string, typ AnswerType) *Question {
		return &Question{Format: taxonomy.FormatShortAnswer, Answer: answer, AnswerType: typ}
	}
	choice := func(answer string, typ AnswerType, options ...string) *Question {
		return &Question{Format: taxonomy.FormatMultipleChoice, Answer: answer, AnswerType: typ, Options: options}
	}
	fractions := choice("3/4", AnswerTypeFraction, "1/2", "3/4", "2/3", "1/4")
	numbers := choice("3", AnswerTypeInteger, "4", "3", "2", "1")
	words := choice("three quarters", AnswerTypeText, "one half", "three quarters", "two thirds")
	tf := &Question{
		Format: taxonomy.FormatTrueFalse, Answer: optionFalse, Canonical: "7",
		AnswerType: AnswerTypeInteger, Options: []string{optionTrue, optionFalse},
	}

	tests := []struct {
		name  string
		q     *Question
		input string
		want  bool
	}{
		{"integer exact", short("42", AnswerTypeInteger), "42", true},
		{"integer padded", short("42", AnswerTypeInteger), " 42 ", true},
		{"integer leading zero", short("42", AnswerTypeInteger), "042", true},
		{"integer wrong", short("42", AnswerTypeInteger), "43", false},
		{"integer empty", short("42", AnswerTypeInteger), "", false},
		{"integer garbage", short("42", AnswerTypeInteger), "abc", false},
		{"decimal trailing zeros", short("3.5", AnswerTypeDecimal), "3.500", true},
		{"decimal wrong", short("3.5", AnswerTypeDecimal), "3.6", false},
		{"fraction unreduced", short("1/2", AnswerTypeFraction), "3/6", true},
		{"fraction wrong", short("1/2", AnswerTypeFraction), "1/3", false},
		{"text case", short("Triangle", AnswerTypeText), " triangle ", true},
		{"choice by index", fractions, "2", true},
		{"choice wrong index", fractions, "1", false},
		{"choice by text", fractions, "3/4", true},
		{"choice wrong text", fractions, "2/3", false},
		{"choice case", words, "Three Quarters", true},
		{"numeric option is text", numbers, "3", true},
		{"numeric option wrong", numbers, "2", false},
		{"true-false text", tf, "false", true},
		{"true-false index", tf, "2", true},
		{"true-false wrong", tf, "True", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAnswer(tt.input, tt.q))
		})
	}
}

func TestAnswersEqual(t *testing.T) {
	assert.True(t, answersEqual("0.50", "0.5", AnswerTypeDecimal))
	assert.True(t, answersEqual("-2/4", "-1/2", AnswerTypeFraction))
	assert.False(t, answersEqual("1/3", "1/2", AnswerTypeFraction))
	assert.True(t, answersEqual(".5", "1/2", AnswerTypeFraction))
	assert.True(t, answersEqual("1 / 2", "0.5", AnswerTypeDecimal))
	assert.True(t, answersEqual("Thousands", "thousands", AnswerTypeInteger), "unparsable sides compare as text")
	assert.False(t, answersEqual("2", "2.0", AnswerTypeText), "text answers never compare numerically")
}

func TestRatOf(t *testing.T) {
	for in, want := range map[string]string{
		"42":     "42",
		" -7 ":   "-7",
		"3.50":   "7/2",
		"-.25":   "-1/4",
		"6/8":    "3/4",
		"1 / 3":  "1/3",
		"-10/5":  "-2",
		"000012": "12",
		"010/08": "5/4",
	} {
		r, ok := ratOf(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, r.RatString(), in)
		}
	}
	for _, in := range []string{"", "abc", "3/0", "1e3", "1/2/3", "x = 4"} {
		_, ok := ratOf(in)
		assert.False(t, ok, in)
	}
}

func TestInferAnswerType(t *testing.T) {
	for in, want := range map[string]AnswerType{
		"42":       AnswerTypeInteger,
		"-15":      AnswerTypeInteger,
		"3.75":     AnswerTypeDecimal,
		".5":       AnswerTypeDecimal,
		"3/4":      AnswerTypeFraction,
		"x = 4":    AnswerTypeText,
		"triangle": AnswerTypeText,
	} {
		assert.Equal(t, want, InferAnswerType(in), in)
	}
}
