package urlx

import "testing"

// TestScope tests scope containment and parent-level widening.
func TestScope(t *testing.T) {
	t.Parallel()

	t.Run("level zero admits only the root subtree", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://a.com/docs/guide/", 0)
		if err != nil {
			t.Fatal(err)
		}

		inScope := []string{
			"https://a.com/docs/guide/",
			"https://a.com/docs/guide/intro/",
			"https://a.com/docs/guide/deep/page.html",
		}
		outOfScope := []string{
			"https://a.com/docs/",
			"https://a.com/docs/other/",
			"https://a.com/",
			"https://b.com/docs/guide/",
			"http://a.com/docs/guide/",
		}

		for _, u := range inScope {
			if !scope.Contains(u) {
				t.Errorf("Contains(%q) = false, want true", u)
			}
		}
		for _, u := range outOfScope {
			if scope.Contains(u) {
				t.Errorf("Contains(%q) = true, want false", u)
			}
		}
	})

	t.Run("each parent level widens the scope", func(t *testing.T) {
		t.Parallel()

		candidates := []string{
			"https://a.com/docs/guide/intro/",
			"https://a.com/docs/other/",
			"https://a.com/top/",
			"https://a.com/",
		}

		prevAdmitted := 0
		for level := 0; level <= 3; level++ {
			scope, err := NewScope("https://a.com/docs/guide/", level)
			if err != nil {
				t.Fatal(err)
			}
			admitted := 0
			for _, c := range candidates {
				if scope.Contains(c) {
					admitted++
				}
			}
			if admitted < prevAdmitted {
				t.Errorf("level %d admits %d candidates, fewer than level %d's %d",
					level, admitted, level-1, prevAdmitted)
			}
			prevAdmitted = admitted
		}

		// At two levels above the root path, the whole host is in scope.
		scope, err := NewScope("https://a.com/docs/guide/", 2)
		if err != nil {
			t.Fatal(err)
		}
		if scope.Prefix() != "/" {
			t.Errorf("prefix at level 2 = %q, want /", scope.Prefix())
		}
	})

	t.Run("widening never goes above the host root", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://a.com/docs/", 99)
		if err != nil {
			t.Fatal(err)
		}
		if scope.Prefix() != "/" {
			t.Errorf("prefix = %q, want /", scope.Prefix())
		}
		if !scope.Contains("https://a.com/anything/") {
			t.Error("host-root scope should admit any path on the host")
		}
		if scope.Contains("https://b.com/") {
			t.Error("host-root scope must not admit other hosts")
		}
	})

	t.Run("file root scopes to the file at level zero", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://a.com/docs/page.html", 0)
		if err != nil {
			t.Fatal(err)
		}
		if !scope.Contains("https://a.com/docs/page.html") {
			t.Error("root itself must be in scope")
		}
		if scope.Contains("https://a.com/docs/other.html") {
			t.Error("siblings are out of scope at level 0")
		}

		wider, err := NewScope("https://a.com/docs/page.html", 1)
		if err != nil {
			t.Fatal(err)
		}
		if !wider.Contains("https://a.com/docs/other.html") {
			t.Error("one parent level should admit siblings")
		}
	})

	t.Run("rejects relative roots", func(t *testing.T) {
		t.Parallel()

		if _, err := NewScope("/docs/", 0); err == nil {
			t.Error("relative root should be rejected")
		}
	})
}

// TestIsPageURL tests the page-versus-asset classification used during
// link admission.
func TestIsPageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://a.com/", true},
		{"https://a.com/docs/", true},
		{"https://a.com/docs/guide", true},
		{"https://a.com/docs/page.html", true},
		{"https://a.com/docs/page.HTM", true},
		{"https://a.com/docs/img.png", false},
		{"https://a.com/docs/manual.pdf", false},
		{"https://a.com/docs/archive.tar.gz", false},
		{"https://a.com/docs/v1.2", false},
		{"http://%zz", false},
	}
	for _, tt := range tests {
		if got := IsPageURL(tt.url); got != tt.want {
			t.Errorf("IsPageURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
