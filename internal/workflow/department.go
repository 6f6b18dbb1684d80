package workflow

// Department identifies which arm of the studio owns a project. Each
// department carries its own status lifecycle and type enum.
type Department string

const (
	DeptIntelligence Department = "intelligence"
	DeptStrategy     Department = "strategy"
	DeptCreative     Department = "creative"
)

// Status values, scoped per department.
const (
	// creative
	StatusRequested       = "requested"
	StatusInProgress      = "in_progress"
	StatusNarrativeReview = "narrative_review"
	StatusRevisions       = "revisions"
	StatusReview          = "review"
	StatusLive            = "live"

	// strategy
	StatusResearchQueued     = "research_queued"
	StatusResearchInProgress = "research_in_progress"
	StatusResearchReview     = "research_review"
	StatusResearchComplete   = "research_complete"

	// intelligence
	StatusMonitoring = "monitoring"
	StatusAnalyzing  = "analyzing"

	// shared terminal
	StatusArchived = "archived"
)

// Project type values, scoped per department.
const (
	TypeInvestorPitch       = "investor_pitch"
	TypeBrandFilm           = "brand_film"
	TypeCampaign            = "campaign"
	TypeMarketResearch      = "market_research"
	TypeCompetitiveAnalysis = "competitive_analysis"
	TypeTrendBrief          = "trend_brief"
	TypeTrendCluster        = "trend_cluster"
	TypeSignalWatch         = "signal_watch"
)

// ApprovalOutcome names where a review status lands after each
// reviewer decision.
type ApprovalOutcome struct {
	Approved         string
	ChangesRequested string
}

// Config is the full workflow configuration: per-department transition
// tables, type enums, initial statuses, promotion paths and approval
// outcomes. It is built once at process start and never mutated.
type Config struct {
	transitions    map[Department]map[string][]string
	types          map[Department][]string
	initialStatus  map[Department]string
	defaultType    map[Department]string
	promotionPaths map[Department][]Department
	reviewOutcomes map[Department]map[string]ApprovalOutcome
	liveStatus     map[Department]string
}

// DefaultConfig builds the studio's workflow tables. Departments have
// structurally different lifecycles (creative loops through review and
// revisions, strategy is linear with a review gate, intelligence is a
// monitor/analyze toggle), so each gets its own adjacency table.
func DefaultConfig() *Config {
	return &Config{
		transitions: map[Department]map[string][]string{
			DeptCreative: {
				StatusRequested:       {StatusInProgress},
				StatusInProgress:      {StatusNarrativeReview},
				StatusNarrativeReview: {StatusRevisions, StatusReview},
				StatusRevisions:       {StatusNarrativeReview, StatusReview},
				StatusReview:          {StatusRevisions, StatusLive},
				StatusLive:            {StatusArchived},
				StatusArchived:        {},
			},
			DeptStrategy: {
				StatusResearchQueued:     {StatusResearchInProgress},
				StatusResearchInProgress: {StatusResearchReview},
				StatusResearchReview:     {StatusResearchInProgress, StatusResearchComplete},
				StatusResearchComplete:   {StatusArchived},
				StatusArchived:           {},
			},
			DeptIntelligence: {
				StatusMonitoring: {StatusAnalyzing, StatusArchived},
				StatusAnalyzing:  {StatusMonitoring, StatusArchived},
				StatusArchived:   {},
			},
		},
		types: map[Department][]string{
			DeptCreative:     {TypeInvestorPitch, TypeBrandFilm, TypeCampaign},
			DeptStrategy:     {TypeMarketResearch, TypeCompetitiveAnalysis, TypeTrendBrief},
			DeptIntelligence: {TypeTrendCluster, TypeSignalWatch},
		},
		initialStatus: map[Department]string{
			DeptCreative:     StatusRequested,
			DeptStrategy:     StatusResearchQueued,
			DeptIntelligence: StatusMonitoring,
		},
		defaultType: map[Department]string{
			DeptCreative: TypeInvestorPitch,
			DeptStrategy: TypeMarketResearch,
		},
		promotionPaths: map[Department][]Department{
			DeptIntelligence: {DeptStrategy, DeptCreative},
			DeptStrategy:     {DeptCreative},
			DeptCreative:     {},
		},
		reviewOutcomes: map[Department]map[string]ApprovalOutcome{
			DeptCreative: {
				StatusNarrativeReview: {Approved: StatusReview, ChangesRequested: StatusRevisions},
				StatusReview:          {Approved: StatusLive, ChangesRequested: StatusRevisions},
			},
			DeptStrategy: {
				StatusResearchReview: {Approved: StatusResearchComplete, ChangesRequested: StatusResearchInProgress},
			},
		},
		liveStatus: map[Department]string{
			DeptCreative: StatusLive,
		},
	}
}

// KnownDepartment reports whether d has a declared transition table.
func (c *Config) KnownDepartment(d Department) bool {
	_, ok := c.transitions[d]
	return ok
}

// Types returns the declared type enum for a department.
func (c *Config) Types(d Department) []string {
	out := make([]string, len(c.types[d]))
	copy(out, c.types[d])
	return out
}

// ValidStatus reports whether status is a declared node in d's table.
func (c *Config) ValidStatus(d Department, status string) bool {
	_, ok := c.transitions[d][status]
	return ok
}

// ValidType reports whether t belongs to d's type enum.
func (c *Config) ValidType(d Department, t string) bool {
	for _, v := range c.types[d] {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultType returns the type assigned on promotion when the caller
// supplies none.
func (c *Config) DefaultType(d Department) string {
	return c.defaultType[d]
}

// PromotionTargets returns the departments a project in d may be
// promoted into. Empty for terminal departments.
func (c *Config) PromotionTargets(d Department) []Department {
	out := make([]Department, len(c.promotionPaths[d]))
	copy(out, c.promotionPaths[d])
	return out
}

// ReviewOutcome returns the approval resolution for a status, and
// whether that status is a review gate at all.
func (c *Config) ReviewOutcome(d Department, status string) (ApprovalOutcome, bool) {
	o, ok := c.reviewOutcomes[d][status]
	return o, ok
}

// LiveStatus returns the published status for a department, empty when
// the department has none.
func (c *Config) LiveStatus(d Department) string {
	return c.liveStatus[d]
}

// ReviewStatuses returns every awaiting-human-decision status for a
// department.
func (c *Config) ReviewStatuses(d Department) []string {
	out := make([]string, 0, len(c.reviewOutcomes[d]))
	for s := range c.reviewOutcomes[d] {
		out = append(out, s)
	}
	return out
}
