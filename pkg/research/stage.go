package research

// Stage is one state of a research run. Stages are entered in declaration
// order and each one is reported exactly once.
type Stage int

const (
	StagePlanningInitial Stage = iota
	StageSearchingInitial
	StageExtractingInitial
	StagePlanningFollowUp
	StageSearchingFollowUp
	StageExtractingFollowUp
	StageBuildingGraph
	StageSummarizing
	StageDone
)

var stageNames = [...]string{
	StagePlanningInitial:    "PLANNING_INITIAL",
	StageSearchingInitial:   "SEARCHING_INITIAL",
	StageExtractingInitial:  "EXTRACTING_INITIAL",
	StagePlanningFollowUp:   "PLANNING_FOLLOWUP",
	StageSearchingFollowUp:  "SEARCHING_FOLLOWUP",
	StageExtractingFollowUp: "EXTRACTING_FOLLOWUP",
	StageBuildingGraph:      "BUILDING_GRAPH",
	StageSummarizing:        "SUMMARIZING",
	StageDone:               "DONE",
}

var stageMessages = [...]string{
	StagePlanningInitial:    "Generating initial search queries...",
	StageSearchingInitial:   "Performing initial searches...",
	StageExtractingInitial:  "Extracting key information from search results...",
	StagePlanningFollowUp:   "Generating follow-up queries based on initial findings...",
	StageSearchingFollowUp:  "Performing follow-up searches...",
	StageExtractingFollowUp: "Extracting additional information...",
	StageBuildingGraph:      "Building knowledge graph...",
	StageSummarizing:        "Generating summary and identifying potential red flags...",
	StageDone:               "Research complete.",
}

// Progress messages for a search round that produced nothing.
const (
	InitialSearchDegraded  = "Encountered an error during initial search. Proceeding with limited information."
	FollowUpSearchDegraded = "Encountered an error during follow-up search. Proceeding with available information."
)

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// Message is the human readable progress message reported on entering s.
func (s Stage) Message() string {
	if s < 0 || int(s) >= len(stageMessages) {
		return ""
	}
	return stageMessages[s]
}
