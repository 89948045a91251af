package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	applog "financitos/internal/log"
	"financitos/internal/remote"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	jsonMimeType   = "application/json"
)

// Config selects the OAuth material and the folder layout on Drive.
type Config struct {
	ClientJSON string
	ClientFile string
	TokenJSON  string
	TokenFile  string
	RootFolder string // e.g. "Financitos"
	DataFolder string // e.g. "dados"
}

// Client uploads backups into <RootFolder>/<DataFolder> on Google Drive.
type Client struct {
	svc        *gdrive.Service
	rootFolder string
	dataFolder string

	mu           sync.Mutex
	dataFolderID string
}

var _ remote.BackupUploader = (*Client)(nil)

// NewFromConfig builds a Drive client authorized with a user OAuth token
// produced by cmd/oauth-init.
func NewFromConfig(ctx context.Context, cfg Config) (*Client, error) {
	clientJSON, err := readSecret(cfg.ClientJSON, cfg.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	tokenJSON, err := readSecret(cfg.TokenJSON, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	oauthCfg, err := goauth.ConfigFromJSON(clientJSON, gdrive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}

	svc, err := gdrive.NewService(ctx, goption.WithTokenSource(oauthCfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	slog.InfoContext(ctx, "Google Drive client created",
		applog.FieldComponent, applog.ComponentDrive,
		"root_folder", cfg.RootFolder,
		"data_folder", cfg.DataFolder)

	return NewWithService(svc, cfg.RootFolder, cfg.DataFolder), nil
}

// NewWithService wraps an existing Drive service.
func NewWithService(svc *gdrive.Service, rootFolder, dataFolder string) *Client {
	if rootFolder == "" {
		rootFolder = "Financitos"
	}
	if dataFolder == "" {
		dataFolder = "dados"
	}
	return &Client{
		svc:        svc,
		rootFolder: rootFolder,
		dataFolder: dataFolder,
	}
}

func readSecret(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	}
	return nil, errors.New("neither inline JSON nor file path configured")
}

// UploadBackup writes content as name inside the data folder, updating the
// file in place when one with the same name already exists there.
func (c *Client) UploadBackup(ctx context.Context, name string, content []byte) (remote.UploadResult, error) {
	if c.svc == nil {
		return fail(errors.New("drive service not initialized"))
	}

	folderID, err := c.ensureFolders(ctx)
	if err != nil {
		return fail(fmt.Errorf("ensure folder structure: %w", err))
	}

	existingID, err := c.findFile(ctx, name, folderID)
	if err != nil {
		return fail(fmt.Errorf("find existing backup: %w", err))
	}

	var file *gdrive.File
	if existingID != "" {
		file, err = c.svc.Files.Update(existingID, &gdrive.File{}).
			Media(bytes.NewReader(content), googleapi.ContentType(jsonMimeType)).
			Fields("id").
			Context(ctx).
			Do()
	} else {
		file, err = c.svc.Files.Create(&gdrive.File{
			Name:     name,
			Parents:  []string{folderID},
			MimeType: jsonMimeType,
		}).
			Media(bytes.NewReader(content), googleapi.ContentType(jsonMimeType)).
			Fields("id").
			Context(ctx).
			Do()
	}
	if err != nil {
		return fail(fmt.Errorf("upload %s: %w", name, err))
	}

	slog.InfoContext(ctx, "Backup uploaded to Drive",
		applog.FieldComponent, applog.ComponentDrive,
		"file_name", name,
		"file_id", file.Id,
		"updated", existingID != "")

	return remote.UploadResult{Success: true, FileID: file.Id}, nil
}

func fail(err error) (remote.UploadResult, error) {
	return remote.UploadResult{Success: false, Error: err.Error()}, fmt.Errorf("%w: %w", remote.ErrSyncFailed, err)
}

// ensureFolders finds or creates the root and data folders and returns
// the data folder id. The id is remembered afterwards.
func (c *Client) ensureFolders(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataFolderID != "" {
		return c.dataFolderID, nil
	}

	rootID, err := c.ensureFolder(ctx, c.rootFolder, "")
	if err != nil {
		return "", err
	}
	dataID, err := c.ensureFolder(ctx, c.dataFolder, rootID)
	if err != nil {
		return "", err
	}

	c.dataFolderID = dataID
	return dataID, nil
}

func (c *Client) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	id, err := c.first(ctx, q)
	if err != nil || id != "" {
		return id, err
	}

	folder := &gdrive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	created, err := c.svc.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", name, err)
	}
	return created.Id, nil
}

func (c *Client) findFile(ctx context.Context, name, folderID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", escapeQuery(name), escapeQuery(folderID))
	return c.first(ctx, q)
}

func (c *Client) first(ctx context.Context, q string) (string, error) {
	list, err := c.svc.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
