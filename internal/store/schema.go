package store

import (
	"math"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tCandidates      = "candidates"
	tAuthTokens      = "auth_tokens"
	tSessions        = "sessions"
	tResponses       = "responses"
	tScorerStates    = "scorer_states"
	tSubTestResults  = "sub_test_results"
	tFinalResults    = "final_results"
	tEvents          = "events"
	textSize         = math.MaxInt32
	timestampComment = "unix milliseconds"
)

var (
	candidatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "full_name", Type: field.TypeString},
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "created_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	candidatesTable = &schema.Table{
		Name:       tCandidates,
		Columns:    candidatesColumns,
		PrimaryKey: []*schema.Column{candidatesColumns[0]},
	}

	authTokensColumns = []*schema.Column{
		{Name: "token", Type: field.TypeString, Size: 64},
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "expires_at", Type: field.TypeInt64, Comment: timestampComment},
		{Name: "created_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	authTokensTable = &schema.Table{
		Name:       tAuthTokens,
		Columns:    authTokensColumns,
		PrimaryKey: []*schema.Column{authTokensColumns[0]},
		Indexes: []*schema.Index{
			{Name: "authtoken_candidate_id", Columns: []*schema.Column{authTokensColumns[1]}},
		},
	}

	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "sub_test", Type: field.TypeString, Size: 32},
		{Name: "attempt", Type: field.TypeInt},
		{Name: "state", Type: field.TypeString, Size: 32},
		{Name: "phase", Type: field.TypeString, Size: 32},
		{Name: "answered_count", Type: field.TypeInt},
		{Name: "question_count", Type: field.TypeInt},
		{Name: "started_at", Type: field.TypeInt64, Comment: timestampComment},
		{Name: "current_question", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "shown_at", Type: field.TypeInt64, Comment: timestampComment},
		{Name: "pending_response", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "updated_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	sessionsTable = &schema.Table{
		Name:       tSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_candidate_id_sub_test", Unique: true, Columns: []*schema.Column{sessionsColumns[1], sessionsColumns[2]}},
		},
	}

	responsesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "sub_test", Type: field.TypeString, Size: 32},
		{Name: "attempt", Type: field.TypeInt},
		{Name: "question_id", Type: field.TypeString, Size: 64},
		{Name: "ordinal", Type: field.TypeInt},
		{Name: "value", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "forced", Type: field.TypeBool},
		{Name: "submitted_at", Type: field.TypeInt64, Comment: timestampComment},
		{Name: "scored", Type: field.TypeBool},
		{Name: "judgement", Type: field.TypeString, Size: textSize, Nullable: true},
	}
	responsesTable = &schema.Table{
		Name:       tResponses,
		Columns:    responsesColumns,
		PrimaryKey: []*schema.Column{responsesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "response_candidate_id_sub_test_attempt_question_id",
				Unique:  true,
				Columns: []*schema.Column{responsesColumns[1], responsesColumns[2], responsesColumns[3], responsesColumns[4]},
			},
		},
	}

	scorerStatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "sub_test", Type: field.TypeString, Size: 32},
		{Name: "data", Type: field.TypeString, Size: textSize},
		{Name: "updated_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	scorerStatesTable = &schema.Table{
		Name:       tScorerStates,
		Columns:    scorerStatesColumns,
		PrimaryKey: []*schema.Column{scorerStatesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "scorerstate_candidate_id_sub_test", Unique: true, Columns: []*schema.Column{scorerStatesColumns[1], scorerStatesColumns[2]}},
		},
	}

	subTestResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "sub_test", Type: field.TypeString, Size: 32},
		{Name: "attempt", Type: field.TypeInt},
		{Name: "summary", Type: field.TypeString, Size: textSize},
		{Name: "completed_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	subTestResultsTable = &schema.Table{
		Name:       tSubTestResults,
		Columns:    subTestResultsColumns,
		PrimaryKey: []*schema.Column{subTestResultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "subtestresult_candidate_id_sub_test", Unique: true, Columns: []*schema.Column{subTestResultsColumns[1], subTestResultsColumns[2]}},
		},
	}

	finalResultsColumns = []*schema.Column{
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "payload", Type: field.TypeString, Size: textSize},
		{Name: "digest", Type: field.TypeString, Size: 64},
		{Name: "generated_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	finalResultsTable = &schema.Table{
		Name:       tFinalResults,
		Columns:    finalResultsColumns,
		PrimaryKey: []*schema.Column{finalResultsColumns[0]},
	}

	eventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "kind", Type: field.TypeString, Size: 32},
		{Name: "candidate_id", Type: field.TypeString, Size: 64},
		{Name: "sub_test", Type: field.TypeString, Size: 32},
		{Name: "payload", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeInt64, Comment: timestampComment},
	}
	eventsTable = &schema.Table{
		Name:       tEvents,
		Columns:    eventsColumns,
		PrimaryKey: []*schema.Column{eventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "event_candidate_id", Columns: []*schema.Column{eventsColumns[2]}},
			{Name: "event_created_at", Columns: []*schema.Column{eventsColumns[5]}},
		},
	}

	// Tables holds every table managed by Migrate.
	Tables = []*schema.Table{
		candidatesTable,
		authTokensTable,
		sessionsTable,
		responsesTable,
		scorerStatesTable,
		subTestResultsTable,
		finalResultsTable,
		eventsTable,
	}
)
