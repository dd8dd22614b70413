package welfare

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// rawEntry is one record of welfare_data.json: the original register
// fields plus the structured eligibility annotation.
type rawEntry struct {
	Original struct {
		ServiceID         string `json:"서비스ID"`
		ServiceName       string `json:"서비스명"`
		Department        string `json:"소관부처"`
		Overview          string `json:"서비스개요"`
		TargetDetails     string `json:"지원대상상세"`
		SelectionCriteria string `json:"선정기준"`
		SupportContent    string `json:"지원내용"`
		SupportCycle      string `json:"지원주기"`
		PaymentMethod     string `json:"지급방식"`
	} `json:"original"`
	Parsed *domain.Eligibility `json:"parsed"`
}

type rawCatalog struct {
	Services map[string]rawEntry `json:"services"`
}

// Catalog is the in-memory read-only welfare-service collection.
type Catalog struct {
	services []*domain.WelfareService
	raw      []byte
}

// Load parses a welfare_data.json document into a catalog. Entry order
// follows the document's service-id order so filtering stays stable.
func Load(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode welfare data: %w", err)
	}

	ids := make([]string, 0, len(raw.Services))
	for id := range raw.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	services := make([]*domain.WelfareService, 0, len(ids))
	for _, id := range ids {
		entry := raw.Services[id]
		svc := &domain.WelfareService{
			ServiceID:         entry.Original.ServiceID,
			ServiceName:       entry.Original.ServiceName,
			ServiceType:       "government",
			ServiceSummary:    entry.Original.Overview,
			Department:        entry.Original.Department,
			SupportTarget:     entry.Original.TargetDetails,
			SelectionCriteria: entry.Original.SelectionCriteria,
			SupportContent:    entry.Original.SupportContent,
			SupportCycle:      entry.Original.SupportCycle,
			PaymentMethod:     entry.Original.PaymentMethod,
			Category:          "복지서비스",
			ServiceStatus:     "active",
			Parsed:            entry.Parsed,
		}
		if svc.ServiceID == "" {
			svc.ServiceID = id
		}
		services = append(services, svc)
	}

	return &Catalog{services: services, raw: data}, nil
}

// LoadFile reads a welfare_data.json from disk. When the file does not
// exist the fallback document is used instead.
func LoadFile(path string, fallback []byte) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Load(fallback)
	}
	if err != nil {
		return nil, fmt.Errorf("read welfare data: %w", err)
	}
	return Load(data)
}

// Services returns the full catalog in stable order.
func (c *Catalog) Services() []*domain.WelfareService {
	return c.services
}

// Len returns the number of services in the catalog.
func (c *Catalog) Len() int {
	return len(c.services)
}

// Raw returns the catalog's source JSON document.
func (c *Catalog) Raw() []byte {
	return c.raw
}
