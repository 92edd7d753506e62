package empreendimento

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of a seed catalogue:
//
//	empreendimentos:
//	  - name: Residencial Sol
//	    city: Campinas
//	    price_from: 350000
type catalogFile struct {
	Empreendimentos []catalogEntry `yaml:"empreendimentos"`
}

type catalogEntry struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Neighborhood   string  `yaml:"neighborhood"`
	City           string  `yaml:"city"`
	Typology       string  `yaml:"typology"`
	PriceFrom      float64 `yaml:"price_from"`
	UnitsAvailable int     `yaml:"units_available"`
	Description    string  `yaml:"description"`
}

// ParseCatalog decodes a YAML catalogue. Entries without an id get a uuid;
// entries without a name are rejected.
func ParseCatalog(r io.Reader) ([]models.Empreendimento, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	out := make([]models.Empreendimento, 0, len(file.Empreendimentos))
	for i, e := range file.Empreendimentos {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalogue entry %d has no name", i)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		out = append(out, models.Empreendimento{
			ID:             e.ID,
			Name:           e.Name,
			Neighborhood:   e.Neighborhood,
			City:           e.City,
			Typology:       e.Typology,
			PriceFrom:      e.PriceFrom,
			UnitsAvailable: e.UnitsAvailable,
			Description:    e.Description,
		})
	}
	return out, nil
}

// SeedFromFile loads the catalogue at path into s. Names already stored are
// left as they are. It returns the number of entries added.
func SeedFromFile(ctx context.Context, s store.EmpreendimentoStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	items, err := ParseCatalog(f)
	if err != nil {
		return 0, err
	}
	return Seed(ctx, s, items)
}

func Seed(ctx context.Context, s store.EmpreendimentoStore, items []models.Empreendimento) (int, error) {
	added := 0
	for _, e := range items {
		if _, err := s.FindEmpreendimentoByName(ctx, e.Name); err == nil {
			continue
		}
		if _, err := s.SaveEmpreendimento(ctx, e); err != nil {
			return added, fmt.Errorf("seed %s: %w", e.Name, err)
		}
		added++
	}
	return added, nil
}
