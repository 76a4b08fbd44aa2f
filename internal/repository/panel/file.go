package panel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/datalogger/internal/config"
)

// Repository defines persistence operations for panel values.
type Repository interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
}

// FileRepository persists panel values to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the panel file does not exist yet.
	ErrNotFound = errors.New("panel values not found")

	// errNotString is returned when a stored value is not a string.
	errNotString = errors.New("panel value is not a string")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads panel values from disk.
func (r *FileRepository) Load(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read panel file: %w", err)
	}

	var stored structpb.Struct
	if err = protojson.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("decode panel file: %w", err)
	}

	return FromStruct(&stored)
}

// Save writes panel values to disk.
func (r *FileRepository) Save(_ context.Context, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{
		EmitUnpopulated: true,
		Multiline:       true,
	}

	data, err := marshalOptions.Marshal(ToStruct(values))
	if err != nil {
		return fmt.Errorf("encode panel values: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write panel file: %w", err)
	}

	return nil
}

// ToStruct converts panel values into a protobuf Struct of string values.
func ToStruct(values map[string]string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(values))
	for key, value := range values {
		fields[key] = structpb.NewStringValue(value)
	}

	return &structpb.Struct{Fields: fields}
}

// FromStruct converts a protobuf Struct into panel values.
// Numbers and booleans are accepted and formatted the way the panel shows them.
func FromStruct(s *structpb.Struct) (map[string]string, error) {
	values := make(map[string]string, len(s.GetFields()))

	for key, value := range s.GetFields() {
		switch kind := value.GetKind().(type) {
		case *structpb.Value_StringValue:
			values[key] = kind.StringValue
		case *structpb.Value_NumberValue:
			values[key] = fmt.Sprint(kind.NumberValue)
		case *structpb.Value_BoolValue:
			values[key] = fmt.Sprint(kind.BoolValue)
		default:
			return nil, fmt.Errorf("%w: %s", errNotString, key)
		}
	}

	return values, nil
}
