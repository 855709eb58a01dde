package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/truwl/capanno-utils/internal/app"
	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/contentmap"
)

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printIdentifier(id string, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"identifier": id})
	}
	fmt.Println(id)
	return nil
}

func printIdentifiers(ids []string, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{"identifiers": ids})
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func printAddResult(result app.AddResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(result)
	}
	if result.Skipped {
		fmt.Println("exists, skipped")
		return nil
	}
	for i, path := range result.Paths {
		if i < len(result.Identifiers) {
			fmt.Printf("%s\t%s\n", result.Identifiers[i], path)
			continue
		}
		fmt.Println(path)
	}
	return nil
}

func printRefresh(result contentmap.RefreshResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(result)
	}
	fmt.Printf("indexed %d identifiers etag=%s\n", result.Identifiers, result.ETag)
	for _, area := range result.Stale {
		fmt.Fprintf(os.Stderr, "warning: %s could not be read, kept its indexed identifiers\n", area)
	}
	return nil
}

func printPromotion(result contentmap.PromotionResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(map[string]any{
			"promoted": result.Promoted,
			"count":    result.Count(),
		})
	}
	ids := make([]string, 0, len(result.Promoted))
	for id := range result.Promoted {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		langs := make([]string, 0, len(result.Promoted[id]))
		for _, lang := range result.Promoted[id] {
			langs = append(langs, string(lang))
		}
		fmt.Printf("%s\t%s\n", id, strings.Join(langs, ","))
	}
	fmt.Printf("promoted %d sources to %s\n", result.Count(), domain.StatusReleased)
	return nil
}

func printValidation(report app.ValidationReport, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(report)
	}
	for _, failure := range report.Failures {
		fmt.Println(failure.Message)
	}
	fmt.Printf("checked %d documents, %d failed\n", report.Checked, len(report.Failures))
	return nil
}
