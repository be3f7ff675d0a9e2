package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"insurance-agents/internal/embeddings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock so concurrent services don't race the migration.
	const lockID = 824441907

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Another service is running migrations; wait briefly and skip.
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS policies (
			id UUID PRIMARY KEY,
			filename TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS policy_summaries (
			policy_id UUID PRIMARY KEY REFERENCES policies(id) ON DELETE CASCADE,
			summary TEXT,
			highlights TEXT[],
			chunk_count INT,
			mode TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS claims (
			id UUID PRIMARY KEY,
			claim_ref TEXT,
			claim_text TEXT,
			loss_type TEXT,
			severity TEXT,
			affected_asset TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			id UUID PRIMARY KEY,
			premium NUMERIC,
			sum_insured NUMERIC,
			deductible NUMERIC,
			family_size INT,
			content TEXT,
			source TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS plan_embeddings (
			plan_id UUID PRIMARY KEY REFERENCES plans(id) ON DELETE CASCADE,
			vector vector(1536),
			model TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS reference_docs (
			id UUID PRIMARY KEY,
			collection TEXT,
			label TEXT,
			content TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS reference_embeddings (
			ref_id UUID PRIMARY KEY REFERENCES reference_docs(id) ON DELETE CASCADE,
			vector vector(1536),
			model TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS dossiers (
			id UUID PRIMARY KEY,
			applicant TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS risk_reports (
			dossier_id UUID PRIMARY KEY REFERENCES dossiers(id) ON DELETE CASCADE,
			risk_score INT,
			risk_level TEXT,
			risk_summary TEXT,
			key_risk_factors TEXT[],
			positive_indicators TEXT[],
			underwriter_notes TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS reference_docs_collection_idx ON reference_docs (collection);`,
		`CREATE INDEX IF NOT EXISTS plans_premium_idx ON plans (premium);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// IVFFlat indexes for cosine similarity search. The reference set is small
	// so an exhaustive scan would do, but the index keeps the plan search fast.
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS plan_embeddings_vector_idx
			ON plan_embeddings USING ivfflat (vector vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS reference_embeddings_vector_idx
			ON reference_embeddings USING ivfflat (vector vector_cosine_ops) WITH (lists = 100)`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create vector index: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreatePolicy(ctx context.Context, filename string) (Policy, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO policies(id, filename, status) VALUES($1,$2,$3)`,
		id, filename, StatusProcessing)
	if err != nil {
		return Policy{}, err
	}
	return Policy{ID: id, Filename: filename, Status: StatusProcessing, CreatedAt: time.Now()}, nil
}

func (s *PostgresStore) UpdatePolicyStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE policies SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("policy not found")
	}
	return nil
}

func (s *PostgresStore) SavePolicySummary(ctx context.Context, sum PolicySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_summaries(policy_id, summary, highlights, chunk_count, mode)
		VALUES($1,$2,$3,$4,$5)
		ON CONFLICT (policy_id) DO UPDATE SET
			summary=excluded.summary, highlights=excluded.highlights,
			chunk_count=excluded.chunk_count, mode=excluded.mode`,
		sum.PolicyID, sum.Summary, pqStringArray(sum.Highlights), sum.ChunkCount, sum.Mode)
	return err
}

func (s *PostgresStore) GetPolicySummary(ctx context.Context, policyID uuid.UUID) (PolicySummary, error) {
	var sum PolicySummary
	var highlights []string
	row := s.db.QueryRowContext(ctx,
		`SELECT summary, highlights, chunk_count, mode FROM policy_summaries WHERE policy_id=$1`, policyID)
	if err := row.Scan(&sum.Summary, pq.Array(&highlights), &sum.ChunkCount, &sum.Mode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PolicySummary{}, ErrSummaryNotFound
		}
		return PolicySummary{}, fmt.Errorf("failed to get summary for policy %s: %w", policyID, err)
	}
	sum.PolicyID = policyID
	sum.Highlights = highlights
	return sum, nil
}

func (s *PostgresStore) SaveClaim(ctx context.Context, c Claim) (Claim, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims(id, claim_ref, claim_text, loss_type, severity, affected_asset)
		VALUES($1,$2,$3,$4,$5,$6)`,
		c.ID, c.ClaimRef, c.ClaimText, c.LossType, c.Severity, c.AffectedAsset)
	if err != nil {
		return Claim{}, err
	}
	return c, nil
}

// ReplacePlans rebuilds the plan reference set wholesale inside one
// transaction. Plans are never patched incrementally.
func (s *PostgresStore) ReplacePlans(ctx context.Context, plans []Plan, model string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plans`); err != nil {
		return err
	}
	for _, p := range plans {
		id := p.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plans(id, premium, sum_insured, deductible, family_size, content, source)
			VALUES($1,$2,$3,$4,$5,$6,$7)`,
			id, p.Premium, p.SumInsured, p.Deductible, p.FamilySize, p.Content, p.Source)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plan_embeddings(plan_id, vector, model) VALUES($1,$2::vector,$3)`,
			id, vectorToString(p.Vector), model)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SearchPlans returns the plans nearest to the query vector. A premium > 0
// restricts results to plans with exactly that premium.
func (s *PostgresStore) SearchPlans(ctx context.Context, vector embeddings.Vector, premium float64, k int) ([]PlanMatch, error) {
	queryVec := vectorToString(vector)

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.premium, p.sum_insured, p.deductible, p.family_size, p.content, p.source,
			1 - (e.vector <=> $1::vector) AS similarity
		FROM plan_embeddings e
		JOIN plans p ON p.id = e.plan_id
		WHERE $2::numeric = 0 OR p.premium = $2
		ORDER BY e.vector <=> $1::vector
		LIMIT $3
	`, queryVec, premium, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []PlanMatch
	for rows.Next() {
		var m PlanMatch
		if err := rows.Scan(&m.Plan.ID, &m.Plan.Premium, &m.Plan.SumInsured, &m.Plan.Deductible,
			&m.Plan.FamilySize, &m.Plan.Content, &m.Plan.Source, &m.Score); err != nil {
			return nil, err
		}
		m.Score = clampScore(m.Score)
		results = append(results, m)
	}
	return results, rows.Err()
}

func (s *PostgresStore) CountReferenceDocs(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reference_docs WHERE collection=$1`, collection).Scan(&n)
	return n, err
}

// ReplaceReferenceDocs destructively recreates one reference collection.
func (s *PostgresStore) ReplaceReferenceDocs(ctx context.Context, collection string, docs []ReferenceDoc, model string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_docs WHERE collection=$1`, collection); err != nil {
		return err
	}
	for _, d := range docs {
		id := d.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reference_docs(id, collection, label, content) VALUES($1,$2,$3,$4)`,
			id, collection, d.Label, d.Content)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reference_embeddings(ref_id, vector, model) VALUES($1,$2::vector,$3)`,
			id, vectorToString(d.Vector), model)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SearchReference returns the nearest reference labels. Equal scores resolve
// to the lexicographically first label so classification is deterministic.
func (s *PostgresStore) SearchReference(ctx context.Context, collection string, vector embeddings.Vector, k int) ([]ReferenceMatch, error) {
	queryVec := vectorToString(vector)

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.label, 1 - (e.vector <=> $1::vector) AS similarity
		FROM reference_embeddings e
		JOIN reference_docs d ON d.id = e.ref_id
		WHERE d.collection = $2
		ORDER BY e.vector <=> $1::vector, d.label
		LIMIT $3
	`, queryVec, collection, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ReferenceMatch
	for rows.Next() {
		var m ReferenceMatch
		if err := rows.Scan(&m.Label, &m.Score); err != nil {
			return nil, err
		}
		m.Score = clampScore(m.Score)
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		n, err := s.CountReferenceDocs(ctx, collection)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrCollectionEmpty
		}
	}
	return results, nil
}

func (s *PostgresStore) CreateDossier(ctx context.Context, applicant string) (Dossier, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO dossiers(id, applicant, status) VALUES($1,$2,$3)`,
		id, applicant, StatusProcessing)
	if err != nil {
		return Dossier{}, err
	}
	return Dossier{ID: id, Applicant: applicant, Status: StatusProcessing, CreatedAt: time.Now()}, nil
}

func (s *PostgresStore) UpdateDossierStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dossiers SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("dossier not found")
	}
	return nil
}

func (s *PostgresStore) SaveRiskReport(ctx context.Context, r RiskReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_reports(dossier_id, risk_score, risk_level, risk_summary, key_risk_factors, positive_indicators, underwriter_notes)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (dossier_id) DO UPDATE SET
			risk_score=excluded.risk_score, risk_level=excluded.risk_level,
			risk_summary=excluded.risk_summary, key_risk_factors=excluded.key_risk_factors,
			positive_indicators=excluded.positive_indicators, underwriter_notes=excluded.underwriter_notes`,
		r.DossierID, r.RiskScore, r.RiskLevel, r.RiskSummary,
		pqStringArray(r.KeyRiskFactors), pqStringArray(r.PositiveIndicators), r.UnderwriterNotes)
	return err
}

func (s *PostgresStore) GetRiskReport(ctx context.Context, dossierID uuid.UUID) (RiskReport, error) {
	var r RiskReport
	var factors, positives []string
	row := s.db.QueryRowContext(ctx, `
		SELECT risk_score, risk_level, risk_summary, key_risk_factors, positive_indicators, underwriter_notes
		FROM risk_reports WHERE dossier_id=$1`, dossierID)
	if err := row.Scan(&r.RiskScore, &r.RiskLevel, &r.RiskSummary,
		pq.Array(&factors), pq.Array(&positives), &r.UnderwriterNotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RiskReport{}, ErrReportNotFound
		}
		return RiskReport{}, fmt.Errorf("failed to get risk report for dossier %s: %w", dossierID, err)
	}
	r.DossierID = dossierID
	r.KeyRiskFactors = factors
	r.PositiveIndicators = positives
	return r, nil
}

func pqStringArray(items []string) any {
	if len(items) == 0 {
		return pq.Array([]string{})
	}
	return pq.Array(items)
}

// clampScore keeps reported similarity inside [0, 1].
func clampScore(s float32) float32 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// vectorToString converts a Vector ([]float32) to pgvector array format.
// Format: "[0.1,0.2,0.3,...]"
func vectorToString(v embeddings.Vector) string {
	if len(v) == 0 {
		return "[]"
	}
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
