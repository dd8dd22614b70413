package augment

// GeneratePersonas derives a persona set on demand, outside a full
// augmentation run. An empty structured path yields the simulated set;
// count caps the clusters (0 means the default cap).
func GeneratePersonas(structuredPath string, count int) ([]map[string]any, error) {
	if count <= 0 || count > maxPersonaClusters {
		count = maxPersonaClusters
	}

	personas := simulatedPersonas()
	if structuredPath != "" {
		header, rows, err := readStructuredData(structuredPath)
		if err != nil {
			return nil, err
		}
		personas = derivePersonas(header, rows)
	}

	if len(personas) > count {
		personas = personas[:count]
	}
	return personas, nil
}
