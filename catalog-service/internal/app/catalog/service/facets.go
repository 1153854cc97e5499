package service

import "catalogadmin/catalog-service/internal/app/catalog/entity"

// BuildFacets группирует уникальные теги по названию группы вариантов
// Порядок групп и значений - порядок первого появления в rows.
// Строки с некорректным JSON пропускаются, неизвестный variant_id попадает в "Other"
func BuildFacets(rows []entity.ProductVariant, names map[uint64]string) []entity.Facet {
	facets := []entity.Facet{}
	groupIndex := make(map[string]int)
	seen := make(map[string]map[string]struct{})

	for _, row := range rows {
		tags, err := row.Tags()
		if err != nil {
			continue
		}

		group, ok := names[row.VariantID]
		if !ok {
			group = entity.OtherVariantGroup
		}

		for _, tag := range tags {
			idx, ok := groupIndex[group]
			if !ok {
				idx = len(facets)
				groupIndex[group] = idx
				seen[group] = make(map[string]struct{})
				facets = append(facets, entity.Facet{Group: group, Values: []string{}})
			}

			if _, dup := seen[group][tag]; dup {
				continue
			}
			seen[group][tag] = struct{}{}
			facets[idx].Values = append(facets[idx].Values, tag)
		}
	}

	return facets
}
