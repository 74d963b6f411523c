package security

import (
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Omelette", "Omelette"},
		{"前後の空白を削除", "  Omelette \n", "Omelette"},
		{"タグを除去", "<b>Hot</b> soup", "Hot soup"},
		{"scriptを除去", `<script>alert(1)</script>Pancakes`, "Pancakes"},
		{"アンパサンドを保持", "Salt & pepper", "Salt & pepper"},
		{"改行を保持", "Step 1\nStep 2", "Step 1\nStep 2"},
		{"日本語", "卵焼き", "卵焼き"},
		{"空文字列", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// イベント属性付きのタグが残らないことを検証
func TestSanitizeText_RemovesEventAttributes(t *testing.T) {
	got := NewTextSanitizer().SanitizeText(`<img src=x onerror="alert(1)">Cake`)
	if strings.Contains(got, "onerror") || strings.Contains(got, "<img") {
		t.Errorf("SanitizeText left markup: %q", got)
	}
}

// 2回適用しても結果が変わらないことを検証
func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	first := sanitizer.SanitizeText("<p>Mix <em>well</em></p>")
	second := sanitizer.SanitizeText(first)
	if first != second {
		t.Errorf("not idempotent: %q then %q", first, second)
	}
}

func TestTextSanitizerInterface(t *testing.T) {
	var _ TextSanitizer = NewTextSanitizer()
}
