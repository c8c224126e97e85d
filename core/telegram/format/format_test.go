package format

import "testing"

func TestHTMLHelpers(t *testing.T) {
	if got := Code("a<b>&c"); got != "<code>a&lt;b&gt;&amp;c</code>" {
		t.Fatalf("Code = %q", got)
	}
	if got := Money(1500); got != "1500.00 руб." {
		t.Fatalf("Money = %q", got)
	}
}
