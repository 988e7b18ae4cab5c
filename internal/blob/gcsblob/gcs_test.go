package gcsblob

import "testing"

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"books", "books/"},
		{"books/", "books/"},
		{"/a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			WithPrefix(tt.input)(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_objectName(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "user_book1.db", "user_book1.db"},
		{"shogi/", "user_book1.db", "shogi/user_book1.db"},
		{"shogi/", "", "shogi/"},
	}

	for _, tt := range tests {
		s := &Store{prefix: tt.prefix}
		got := s.objectName(tt.key)
		if got != tt.want {
			t.Errorf("objectName(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
		if back := s.keyOf(got); back != tt.key {
			t.Errorf("keyOf(%q) = %q, want %q", got, back, tt.key)
		}
	}
}
