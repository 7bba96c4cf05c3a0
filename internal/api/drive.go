package api

import (
	"context"
	"net/http"
)

var (
	driveUploadFile = register(Endpoint{
		Scope: "Drive", Name: "uploadFile", Method: http.MethodPost,
		Path: "/open-apis/drive/v1/files/upload_all",
		Body: []string{"file_name", "parent_type", "parent_node", "size", "checksum", "file"},
		Caps: NeedTenantToken | NeedUserToken | FileUpload,
		Doc:  "Upload a file of up to 20MB in one request",
	})
	driveDownloadFile = register(Endpoint{
		Scope: "Drive", Name: "downloadFile", Method: http.MethodGet,
		Path: "/open-apis/drive/v1/files/:file_token/download",
		Caps: NeedTenantToken | NeedUserToken | FileDownload,
		Doc:  "Download a drive file",
	})
)

// DriveUpload describes a single-request upload into a folder.
type DriveUpload struct {
	FileName   string
	ParentNode string
	// ParentType defaults to "explorer".
	ParentType string
	Content    []byte
}

// UploadFile uploads a file and returns its token.
func (s DriveService) UploadFile(ctx context.Context, up DriveUpload) (string, error) {
	parentType := up.ParentType
	if parentType == "" {
		parentType = "explorer"
	}
	var result struct {
		FileToken string `json:"file_token"`
	}
	err := s.Call(ctx, driveUploadFile, Values{
		"file_name":   up.FileName,
		"parent_type": parentType,
		"parent_node": up.ParentNode,
		"size":        len(up.Content),
		"file":        File{Name: up.FileName, Content: up.Content},
	}, &result)
	if err != nil {
		return "", err
	}
	return result.FileToken, nil
}

// DownloadFile returns the content of a drive file.
func (s DriveService) DownloadFile(ctx context.Context, fileToken string) (*Download, error) {
	return callInto[Download](ctx, s.Client, driveDownloadFile, Values{"file_token": fileToken})
}
