package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS attendance_groups (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name       VARCHAR(100) NOT NULL,
	type       VARCHAR(20) NOT NULL,
	rules      JSONB NOT NULL DEFAULT '{}',
	member_ids TEXT[] NOT NULL DEFAULT '{}',
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_attendance_groups_member_ids ON attendance_groups USING GIN (member_ids);

CREATE TABLE IF NOT EXISTS work_shifts (
	id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	group_id         UUID NOT NULL REFERENCES attendance_groups(id),
	name             VARCHAR(100) NOT NULL,
	start_time       CHAR(5) NOT NULL,
	end_time         CHAR(5) NOT NULL,
	flexible_minutes INT,
	break_times      JSONB NOT NULL DEFAULT '[]',
	cross_day        BOOLEAN NOT NULL DEFAULT FALSE,
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_work_shifts_group_id ON work_shifts (group_id);

CREATE TABLE IF NOT EXISTS attendance_records (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	employee_id        VARCHAR(64) NOT NULL,
	work_date          DATE NOT NULL,
	check_in_time      TIMESTAMPTZ,
	check_out_time     TIMESTAMPTZ,
	check_in_type      VARCHAR(20),
	check_in_location  TEXT,
	check_out_location TEXT,
	status             VARCHAR(20) NOT NULL,
	abnormal_reason    TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_attendance_records_employee_date UNIQUE (employee_id, work_date),
	CONSTRAINT chk_attendance_records_checkout CHECK (check_out_time IS NULL OR check_out_time > check_in_time)
);

CREATE TABLE IF NOT EXISTS holidays (
	date DATE PRIMARY KEY,
	name VARCHAR(100) NOT NULL
);
`

// Migrate creates the tables the repositories use when they are missing.
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
