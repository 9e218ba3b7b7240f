package character

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModifierFloorsTowardNegativeInfinity(t *testing.T) {
	cases := []struct {
		score, want int
	}{
		{15, 2},
		{10, 0},
		{11, 0},
		{12, 1},
		{9, -1},
		{8, -1},
		{7, -2},
		{20, 5},
		{1, -5},
	}
	for _, tc := range cases {
		if got := Modifier(tc.score); got != tc.want {
			t.Fatalf("Modifier(%d) = %d, want %d", tc.score, got, tc.want)
		}
	}
}

func TestPassiveACBonusSumsLearnedAbilities(t *testing.T) {
	c := &Character{Abilities: []Ability{
		{Key: "shield-stance", ACBonus: 2},
		{Key: "firebolt", DamageBonus: 1},
		{Key: "iron-skin", ACBonus: 1},
	}}
	if got := c.PassiveACBonus(); got != 3 {
		t.Fatalf("PassiveACBonus = %d, want 3", got)
	}
}

func TestFileProviderLoadsRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	body := `{"characters":[
		{"guild_id":"g1","user_id":"alice","class_id":"warrior","scores":{"strength":15,"dexterity":10,"constitution":12,"intelligence":10,"wisdom":10,"charisma":10}},
		{"guild_id":"g1","user_id":"bob","class_id":"mage","scores":{"strength":10,"dexterity":10,"constitution":10,"intelligence":16,"wisdom":10,"charisma":10},"abilities":[{"key":"firebolt","slot_level":1}]}
	]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("want 2 characters, got %d", p.Len())
	}
	c, ok, err := p.Find("g1", "alice")
	if err != nil || !ok {
		t.Fatalf("Find(alice) = %v, %v", ok, err)
	}
	if c.ClassID != "warrior" || c.Scores.Strength != 15 {
		t.Fatalf("unexpected character: %+v", c)
	}
	if _, ok, _ := p.Find("g1", "mallory"); ok {
		t.Fatal("unknown user should miss")
	}
}

func TestFileProviderRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	if err := os.WriteFile(path, []byte(`{"characters":[{"user_id":"alice"}]}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := NewFileProvider(path); err == nil {
		t.Fatal("want error for character without guild_id")
	}
}

func TestFileProviderEmptyPath(t *testing.T) {
	p, err := NewFileProvider("")
	if err != nil {
		t.Fatalf("NewFileProvider(\"\") failed: %v", err)
	}
	if _, ok, _ := p.Find("g1", "alice"); ok {
		t.Fatal("empty roster should always miss")
	}
}
