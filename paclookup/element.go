// Package paclookup implements the element builder (joining zones
// with templates and rendering the per-zone PAC variant) and the
// longest-prefix lookup tree built from the resulting elements.
package paclookup

import (
	"strings"

	"github.com/TimeForANinja/pacserver/ipnet"
	"github.com/TimeForANinja/pacserver/pactemplate"
	"github.com/TimeForANinja/pacserver/zonefeed"
	"go.uber.org/zap"
)

// Element is a joined (zone, template, rendered) triple: the unit
// stored in the lookup tree. Template is nil only for the synthetic
// tree root.
type Element struct {
	Zone     zonefeed.Zone
	Template *pactemplate.Template
	Rendered string
}

// Prefix is a convenience accessor for the zone's prefix.
func (e Element) Prefix() ipnet.Prefix {
	return e.Zone.Prefix
}

// templateName returns the zone's template name, or "" for the
// synthetic root element which has no backing zone record.
func (e Element) templateName() string {
	return e.Zone.TemplateName
}

// render performs the closed, literal token substitution PAC bodies
// support: "{{ .Filename }}" and "{{ .Contact }}". This is
// deliberately not a general templating engine: the token set is
// closed and small, and substitution never recurses into its own
// output.
func render(body, filename, contact string) string {
	body = strings.ReplaceAll(body, "{{ .Filename }}", filename)
	body = strings.ReplaceAll(body, "{{ .Contact }}", contact)
	return body
}

// newElement joins one zone with its matched template and renders the
// body.
func newElement(z zonefeed.Zone, tpl pactemplate.Template, contact string) Element {
	return Element{
		Zone:     z,
		Template: &tpl,
		Rendered: render(tpl.Body, z.TemplateName, contact),
	}
}

// Snapshot is the pair of source collections the element builder
// keeps between refreshes, so a partial failure of one loader can
// still be served against the other's last-known-good data.
type Snapshot struct {
	Zones     []zonefeed.Zone
	Templates []pactemplate.Template
}

// BuildResult is the output of BuildElements: either a fresh snapshot
// + element list, or a signal that nothing changed (Updated == false),
// in which case the caller must keep serving its current tree.
type BuildResult struct {
	Updated  bool
	Snapshot Snapshot
	Elements []Element
}

// BuildElements joins the chosen zone list with the chosen template
// list following a partial-failure policy:
//
//	errZ  errT  zones used   templates used             rebuild?
//	yes   yes   n/a          n/a                        no
//	yes   no    prev.Zones   freshTemplates             yes
//	no    yes   freshZones   prev.Templates             yes
//	no    no    freshZones   freshTemplates (+fallback) yes
//
// Per-zone template lookup first checks the chosen template list by
// exact name; on a miss it falls back to prev.Templates (logging a
// warning) and, on a hit there, appends that template to the working
// list so later refreshes see it as still present. A zone whose
// template can't be found anywhere is skipped with a warning.
func BuildElements(
	prev Snapshot,
	freshZones []zonefeed.Zone, errZ error,
	freshTemplates []pactemplate.Template, errT error,
	contact string,
	logger *zap.Logger,
) BuildResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	if errZ != nil && errT != nil {
		logger.Error("paclookup: zone and template load both failed, keeping cached data",
			zap.Error(errZ), zap.NamedError("template_error", errT))
		return BuildResult{Updated: false}
	}

	zones := freshZones
	templates := freshTemplates

	switch {
	case errZ != nil:
		logger.Error("paclookup: zone load failed, using cached zones with fresh templates", zap.Error(errZ))
		zones = prev.Zones
	case errT != nil:
		logger.Error("paclookup: template load failed, using cached templates with fresh zones", zap.Error(errT))
		templates = prev.Templates
	}

	byName := make(map[string]pactemplate.Template, len(templates))
	for _, t := range templates {
		byName[t.Name] = t
	}
	prevByName := make(map[string]pactemplate.Template, len(prev.Templates))
	for _, t := range prev.Templates {
		prevByName[t.Name] = t
	}

	elements := make([]Element, 0, len(zones))
	for _, z := range zones {
		tpl, ok := byName[z.TemplateName]
		if !ok {
			cached, cachedOK := prevByName[z.TemplateName]
			if !cachedOK {
				logger.Warn("paclookup: unknown template, no cached version available, skipping zone",
					zap.String("template", z.TemplateName), zap.String("prefix", z.Prefix.String()))
				continue
			}
			logger.Warn("paclookup: unknown template, using cached version",
				zap.String("template", z.TemplateName), zap.String("prefix", z.Prefix.String()))
			tpl = cached
			templates = append(templates, cached)
			byName[tpl.Name] = tpl
		}

		elements = append(elements, newElement(z, tpl, contact))
	}

	return BuildResult{
		Updated:  true,
		Snapshot: Snapshot{Zones: zones, Templates: templates},
		Elements: elements,
	}
}
