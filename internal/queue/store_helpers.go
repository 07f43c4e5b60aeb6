package queue

import (
	"database/sql"
	"errors"
	"time"
)

// timestampLayout keeps a fixed fraction width so stored timestamps sort
// lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemColumns = "id, public_id, source_name, source_path, client_addr, status, mode, normalized_file, frames_dir, output_file, guide_data, width, height, frame_rate, frame_count, redacted_frames, sample_hz, sample_every, sampled_frames, error_message, error_kind, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		publicID         string
		sourceName       sql.NullString
		sourcePath       sql.NullString
		clientAddr       sql.NullString
		statusStr        string
		mode             sql.NullString
		normalizedFile   sql.NullString
		framesDir        sql.NullString
		outputFile       sql.NullString
		guideData        sql.NullString
		width            sql.NullInt64
		height           sql.NullInt64
		frameRate        sql.NullFloat64
		frameCount       sql.NullInt64
		redactedFrames   sql.NullInt64
		sampleHz         sql.NullFloat64
		sampleEvery      sql.NullInt64
		sampledFrames    sql.NullInt64
		errorMessage     sql.NullString
		errorKind        sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&publicID,
		&sourceName,
		&sourcePath,
		&clientAddr,
		&statusStr,
		&mode,
		&normalizedFile,
		&framesDir,
		&outputFile,
		&guideData,
		&width,
		&height,
		&frameRate,
		&frameCount,
		&redactedFrames,
		&sampleHz,
		&sampleEvery,
		&sampledFrames,
		&errorMessage,
		&errorKind,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		PublicID:        publicID,
		SourceName:      sourceName.String,
		SourcePath:      sourcePath.String,
		ClientAddr:      clientAddr.String,
		Status:          Status(statusStr),
		Mode:            Mode(mode.String),
		NormalizedFile:  normalizedFile.String,
		FramesDir:       framesDir.String,
		OutputFile:      outputFile.String,
		GuideData:       guideData.String,
		Width:           int(width.Int64),
		Height:          int(height.Int64),
		FrameRate:       frameRate.Float64,
		FrameCount:      int(frameCount.Int64),
		RedactedFrames:  int(redactedFrames.Int64),
		SampleHz:        sampleHz.Float64,
		SampleEvery:     int(sampleEvery.Int64),
		SampledFrames:   int(sampledFrames.Int64),
		ErrorMessage:    errorMessage.String,
		ErrorKind:       errorKind.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}
