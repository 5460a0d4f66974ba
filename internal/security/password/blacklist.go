package password

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Blacklist es un set de secretos prohibidos, comparados en minúsculas.
type Blacklist struct {
	mu   sync.RWMutex
	data map[string]struct{}
}

func NewBlacklist(words ...string) *Blacklist {
	bl := &Blacklist{data: map[string]struct{}{}}
	bl.Add(words...)
	return bl
}

// LoadBlacklist lee un archivo con un secreto por línea; # comenta. Path
// vacío devuelve una lista vacía.
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := NewBlacklist()
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); !strings.HasPrefix(s, "#") {
			bl.Add(s)
		}
	}
	return bl, sc.Err()
}

func (b *Blacklist) Add(words ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range words {
		if s := strings.ToLower(strings.TrimSpace(w)); s != "" {
			b.data[s] = struct{}{}
		}
	}
}

func (b *Blacklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(pwd))
	b.mu.RLock()
	_, ok := b.data[p]
	b.mu.RUnlock()
	return ok
}
