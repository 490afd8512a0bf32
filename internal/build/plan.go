package build

import (
	"slices"

	"git.home.luguber.info/inful/glaze/internal/content"
	"git.home.luguber.info/inful/glaze/internal/manifest"
)

// PlanOptions tunes NewPlan.
type PlanOptions struct {
	IncludeDrafts bool
	// OutputExists reports whether a path under the output root is present.
	// Incremental plans re-render and re-copy anything it reports missing.
	// Nil treats every output as present.
	OutputExists func(rel string) bool
	// PreviousVirtual lists the virtual page outputs of the last build.
	// Entries no current page produces are deleted.
	PreviousVirtual []string
}

// Plan lists the work for one build. Every path is relative to the output
// root and every slice is sorted, except Render which keeps discovery order.
type Plan struct {
	Full bool

	Render []content.Page

	DeletePages         []string
	DeleteContentAssets []string
	DeleteStaticAssets  []string
	RemoveDrafts        []string // Outputs of pages skipped as drafts
	DeleteVirtual       []string // Virtual page outputs no longer produced

	PublishContentAssets []string
	PublishStaticAssets  []string
}

// Deletions returns every path the plan removes, sorted and deduplicated.
func (p Plan) Deletions() []string {
	all := slices.Concat(p.DeletePages, p.DeleteContentAssets, p.DeleteStaticAssets, p.RemoveDrafts, p.DeleteVirtual)
	slices.Sort(all)
	return slices.Compact(all)
}

// Publishable reports whether page is written to the output.
func Publishable(page content.Page, includeDrafts bool) bool {
	return !page.Draft || includeDrafts
}

// NewPlan decides what to render, copy and delete by comparing next with
// prev. It performs no I/O beyond opts.OutputExists.
func NewPlan(next, prev *manifest.Manifest, pages []content.Page, opts PlanOptions) Plan {
	exists := opts.OutputExists
	if exists == nil {
		exists = func(string) bool { return true }
	}

	plan := Plan{Full: next.RequiresFullBuild(prev)}

	// Everything the current inputs produce. Deletions never touch these.
	produced := map[string]bool{}
	for _, page := range pages {
		if Publishable(page, opts.IncludeDrafts) {
			produced[page.OutputRelativePath] = true
		}
	}
	for _, rel := range next.ContentAssetOutputPaths() {
		produced[rel] = true
	}
	for _, rel := range next.StaticAssetOutputPaths() {
		produced[rel] = true
	}

	changed := map[string]bool{}
	if !plan.Full {
		for _, rel := range next.ChangedPageOutputPaths(prev) {
			changed[rel] = true
		}
	}

	// When pages share an output path the later one wins; render only it so
	// concurrent workers cannot race on the file.
	last := map[string]int{}
	for i, page := range pages {
		if Publishable(page, opts.IncludeDrafts) {
			last[page.OutputRelativePath] = i
		}
	}

	drafts := map[string]bool{}
	for i, page := range pages {
		rel := page.OutputRelativePath
		if !Publishable(page, opts.IncludeDrafts) {
			if !produced[rel] {
				drafts[rel] = true
			}
			continue
		}
		if last[rel] != i {
			continue
		}
		if plan.Full || changed[rel] || !exists(rel) {
			plan.Render = append(plan.Render, page)
		}
	}
	plan.RemoveDrafts = sortedSet(drafts)

	plan.DeletePages = excluding(next.OrphanedPageOutputPaths(prev), produced)
	plan.DeleteContentAssets = excluding(next.OrphanedContentAssetOutputPaths(prev), produced)
	plan.DeleteStaticAssets = excluding(next.OrphanedStaticAssetOutputPaths(prev), produced)
	plan.DeleteVirtual = excluding(slices.Sorted(slices.Values(opts.PreviousVirtual)), produced)

	if plan.Full {
		plan.PublishContentAssets = next.ContentAssetOutputPaths()
		plan.PublishStaticAssets = next.StaticAssetOutputPaths()
	} else {
		plan.PublishContentAssets = withMissing(next.ChangedContentAssetOutputPaths(prev), next.ContentAssetOutputPaths(), exists)
		plan.PublishStaticAssets = withMissing(next.ChangedStaticAssetOutputPaths(prev), next.StaticAssetOutputPaths(), exists)
	}
	return plan
}

func excluding(paths []string, keep map[string]bool) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !keep[p] {
			out = append(out, p)
		}
	}
	return out
}

// withMissing adds every path in all that exists reports missing to changed.
func withMissing(changed, all []string, exists func(string) bool) []string {
	set := make(map[string]bool, len(changed))
	for _, p := range changed {
		set[p] = true
	}
	for _, p := range all {
		if !exists(p) {
			set[p] = true
		}
	}
	return sortedSet(set)
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// VirtualOutputs returns the output paths of the publishable virtual pages,
// sorted.
func VirtualOutputs(pages []content.Page, includeDrafts bool) []string {
	set := map[string]bool{}
	for _, p := range pages {
		if p.Virtual && Publishable(p, includeDrafts) {
			set[p.OutputRelativePath] = true
		}
	}
	return sortedSet(set)
}
