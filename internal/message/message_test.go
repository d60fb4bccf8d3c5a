package message

import "testing"

func TestBuilderDefaults(t *testing.T) {
	if msg := NewText("hi"); !msg.LinkPreview {
		t.Fatal("text messages should default to link previews on")
	}
	if msg := NewDocument("https://example.com/a.pdf"); msg.Filename != "document" {
		t.Fatalf("document filename default = %q", msg.Filename)
	}
	if msg := NewPoll("lunch?", "pizza", "sushi"); msg.SelectableCount != 1 {
		t.Fatalf("poll selectableCount default = %d", msg.SelectableCount)
	}
	if msg := NewTemplate("welcome"); msg.Language != "en_US" {
		t.Fatalf("template language default = %q", msg.Language)
	}
}

func TestTextOptions(t *testing.T) {
	msg := NewText("hi").WithOptions(true, 1200, false)
	if !msg.Quoted || msg.DelayMs != 1200 || msg.LinkPreview {
		t.Fatalf("unexpected options: quoted=%v delay=%d preview=%v", msg.Quoted, msg.DelayMs, msg.LinkPreview)
	}
	if msg.Err() != nil {
		t.Fatalf("unexpected shape error: %v", msg.Err())
	}
}

func TestAddReplyButtonDerivesID(t *testing.T) {
	msg := NewButtons("Order", "Pick one").
		AddReplyButton("View Cart", nil).
		AddReplyButton("Checkout", map[string]string{"id": "custom-id", "extra": "x"})

	if len(msg.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(msg.Buttons))
	}
	if got := msg.Buttons[0].Data["id"]; got != "btn-view-cart" {
		t.Fatalf("derived id = %q", got)
	}
	if got := msg.Buttons[1].Data["id"]; got != "custom-id" {
		t.Fatalf("explicit id overridden: %q", got)
	}
	if got := msg.Buttons[1].Data["extra"]; got != "x" {
		t.Fatalf("extra data lost: %q", got)
	}
}

func TestAddURLButton(t *testing.T) {
	msg := NewButtons("Docs", "Read more").AddURLButton("Open", "https://example.com")
	if msg.Buttons[0].Type != "url" || msg.Buttons[0].Data["url"] != "https://example.com" {
		t.Fatalf("unexpected url button: %+v", msg.Buttons[0])
	}
}

func TestListSectionOrderPreserved(t *testing.T) {
	msg := NewList("Menu", "Choose", "Open").
		AddSection("Starters",
			ListRow{ID: "s1", Title: "Soup"},
			ListRow{ID: "s2", Title: "Salad"},
			ListRow{ID: "s3", Title: "Bread"},
		).
		AddSection("Mains",
			ListRow{ID: "m1", Title: "Pasta"},
			ListRow{ID: "m2", Title: "Steak"},
			ListRow{ID: "m3", Title: "Curry"},
		)

	if len(msg.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(msg.Sections))
	}
	wantTitles := [][]string{
		{"Soup", "Salad", "Bread"},
		{"Pasta", "Steak", "Curry"},
	}
	for i, section := range msg.Sections {
		for j, row := range section.Rows {
			if row.Title != wantTitles[i][j] {
				t.Fatalf("section %d row %d = %q, want %q", i, j, row.Title, wantTitles[i][j])
			}
		}
	}
}

func TestMismatchedFluentCallRecordsError(t *testing.T) {
	msg := NewText("hi").AddReplyButton("Nope", nil)
	if msg.Err() == nil {
		t.Fatal("expected shape error for AddReplyButton on a text message")
	}

	// first error sticks
	first := msg.Err()
	msg.AddSection("also wrong")
	if msg.Err() != first {
		t.Fatal("later misuse should not replace the first shape error")
	}
}

func TestSlugID(t *testing.T) {
	cases := map[string]string{
		"View Cart":   "btn-view-cart",
		"OK":          "btn-ok",
		"Two  Spaces": "btn-two--spaces",
	}
	for input, want := range cases {
		if got := SlugID(input); got != want {
			t.Fatalf("SlugID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestToPayloadKeysFollowKind(t *testing.T) {
	p := NewText("hello").WithInstance("sales").ToPayload()
	if p["type"] != "text" || p["text"] != "hello" || p["instance"] != "sales" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if _, ok := p["url"]; ok {
		t.Fatal("text payload should not carry media keys")
	}

	p = NewPoll("lunch?", "pizza", "sushi").ToPayload()
	if p["question"] != "lunch?" || p["selectableCount"] != 1 {
		t.Fatalf("unexpected poll payload: %+v", p)
	}
	if _, ok := p["instance"]; ok {
		t.Fatal("untagged message should not carry an instance key")
	}
}
