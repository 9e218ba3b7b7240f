package character

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileProvider serves characters from a JSON roster file. It is the
// built-in Provider for deployments where the character sheets live in a
// flat file rather than behind a separate service.
type FileProvider struct {
	byKey map[string]*Character
}

type rosterFile struct {
	Characters []Character `json:"characters"`
}

// NewFileProvider loads the roster at path. An empty path yields an empty
// roster, where every lookup misses.
func NewFileProvider(path string) (*FileProvider, error) {
	p := &FileProvider{byKey: map[string]*Character{}}
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}
	var rf rosterFile
	if err := json.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}
	for i := range rf.Characters {
		c := rf.Characters[i]
		if c.GuildID == "" || c.UserID == "" {
			return nil, fmt.Errorf("roster file %s: character %d is missing guild_id or user_id", path, i)
		}
		p.byKey[c.GuildID+"/"+c.UserID] = &c
	}
	return p, nil
}

func (p *FileProvider) Find(guildID, userID string) (*Character, bool, error) {
	c, ok := p.byKey[guildID+"/"+userID]
	return c, ok, nil
}

// Len reports how many characters the roster holds.
func (p *FileProvider) Len() int { return len(p.byKey) }
