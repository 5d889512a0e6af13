package config

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"
)

// Profile holds the hyperparameters tuned for one benchmark corpus.
type Profile struct {
	Name              string
	Folder            string
	MaxDocumentLength int
	MaxVocabularySize int
	EmbeddingsSize    int
	BatchSize         int
	Epochs            int
	KPWeight          float64
	StemMode          string
	StemTest          bool
}

// Profiles are keyed by lower-case name.
var Profiles = map[string]Profile{
	"semeval2017": {
		Name: "Semeval2017", Folder: "data/Semeval2017",
		MaxDocumentLength: 400, MaxVocabularySize: 20000, EmbeddingsSize: 50,
		BatchSize: 32, Epochs: 30, KPWeight: 10, StemMode: "both",
	},
	"hulth": {
		Name: "Hulth", Folder: "data/Hulth2003",
		MaxDocumentLength: 550, MaxVocabularySize: 20000, EmbeddingsSize: 300,
		BatchSize: 32, Epochs: 28, KPWeight: 10, StemMode: "none",
	},
	"marujo2012": {
		Name: "Marujo2012", Folder: "data/Marujo2012",
		MaxDocumentLength: 7000, MaxVocabularySize: 20000, EmbeddingsSize: 50,
		BatchSize: 16, Epochs: 10, KPWeight: 10, StemMode: "both",
	},
	"semeval2010": {
		Name: "Semeval2010", Folder: "data/Semeval2010",
		MaxDocumentLength: 16600, MaxVocabularySize: 50000, EmbeddingsSize: 50,
		BatchSize: 16, Epochs: 40, KPWeight: 500, StemMode: "results", StemTest: true,
	},
}

// LookupProfile finds a profile by case-insensitive name.
func LookupProfile(name string) (Profile, error) {
	p, ok := Profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, kpseq.NewConfigurationError("dataset.profile", "unknown profile %q (known: %s)",
			name, strings.Join(ProfileNames(), ", ")).Wrap(kpseq.ErrUnknownProfile)
	}
	return p, nil
}

// ProfileNames lists the known profile keys in order.
func ProfileNames() []string {
	names := make([]string, 0, len(Profiles))
	for k := range Profiles {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
