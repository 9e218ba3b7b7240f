package character

import "golang.org/x/sync/singleflight"

// CachedProvider wraps a Provider with a singleflight group so concurrent
// lookups for the same (guild, user) pair collapse into one upstream call.
// Challenge validation holds per-user locks while it looks characters up,
// so keeping the lookup path cheap matters.
type CachedProvider struct {
	upstream Provider
	group    singleflight.Group
}

func NewCachedProvider(upstream Provider) *CachedProvider {
	return &CachedProvider{upstream: upstream}
}

type findResult struct {
	char  *Character
	found bool
}

func (p *CachedProvider) Find(guildID, userID string) (*Character, bool, error) {
	key := guildID + "/" + userID
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		c, ok, err := p.upstream.Find(guildID, userID)
		if err != nil {
			return nil, err
		}
		return findResult{char: c, found: ok}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(findResult)
	return res.char, res.found, nil
}
