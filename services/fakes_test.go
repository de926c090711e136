package services

import (
	"context"
	"sort"
	"time"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/oss"

	"gorm.io/gorm"
)

func setupTestConfig() {
	config.AppConfig = &config.Config{
		OSS: config.OSSConfig{
			Bucket: "test-bucket",
		},
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpireHours: 1,
		},
		Storage: config.StorageConfig{
			DefaultUserQuota: 10 * 1024 * 1024 * 1024,
			UploadSessionTTL: 3600,
			PolicyExpire:     3600,
			DownloadExpire:   3600,
			SizeTolerance:    1024,
		},
		Drop: config.DropConfig{
			ExpirySweepInterval: 600,
		},
	}
}

type fakeTxManager struct{}

func (m *fakeTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (r *fakeUserRepo) addUser(user models.User) *models.User {
	if user.ID == 0 {
		user.ID = r.nextID
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	stored := user
	r.users[stored.ID] = &stored
	return &stored
}

func (r *fakeUserRepo) CountByUsername(ctx context.Context, username string) (int64, error) {
	var count int64
	for _, u := range r.users {
		if u.Username == username {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[stored.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	if u, ok := r.users[userID]; ok {
		return *u, nil
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	return r.GetByID(ctx, tx, userID)
}

func (r *fakeUserRepo) AddUsedSpace(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if u, ok := r.users[userID]; ok {
		u.UsedSpace += delta
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) SubUsedSpace(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if u, ok := r.users[userID]; ok {
		u.UsedSpace -= delta
		if u.UsedSpace < 0 {
			u.UsedSpace = 0
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) SetUsedSpace(ctx context.Context, tx *gorm.DB, userID uint, usedSpace int64) error {
	if u, ok := r.users[userID]; ok {
		u.UsedSpace = usedSpace
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, userID uint, hashedPassword string) error {
	if u, ok := r.users[userID]; ok {
		u.Password = hashedPassword
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeFileRepo struct {
	files  map[uint]*models.File
	nextID uint
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[uint]*models.File), nextID: 1}
}

func (r *fakeFileRepo) addFile(file models.File) *models.File {
	if file.ID == 0 {
		file.ID = r.nextID
	}
	if file.ID >= r.nextID {
		r.nextID = file.ID + 1
	}
	stored := file
	r.files[stored.ID] = &stored
	return &stored
}

func (r *fakeFileRepo) Create(ctx context.Context, tx *gorm.DB, file *models.File) error {
	file.ID = r.nextID
	r.nextID++
	stored := *file
	r.files[stored.ID] = &stored
	return nil
}

func (r *fakeFileRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error) {
	f, ok := r.files[fileID]
	if !ok || f.IsDeleted || f.UserID != userID {
		return models.File{}, gorm.ErrRecordNotFound
	}
	return *f, nil
}

func (r *fakeFileRepo) ListByUserAndPath(ctx context.Context, tx *gorm.DB, userID uint, path string) ([]models.File, error) {
	var out []models.File
	for _, f := range r.files {
		if f.UserID == userID && f.Path == path && !f.IsDeleted {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFileRepo) ListActiveByIDsAndUser(ctx context.Context, tx *gorm.DB, userID uint, fileIDs []uint) ([]models.File, error) {
	var out []models.File
	for _, id := range fileIDs {
		f, ok := r.files[id]
		if ok && f.UserID == userID && !f.IsDeleted {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error {
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"]; ok {
		f.Name = v.(string)
	}
	if v, ok := updates["path"]; ok {
		f.Path = v.(string)
	}
	return nil
}

func (r *fakeFileRepo) SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) error {
	f, ok := r.files[fileID]
	if !ok || f.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	f.IsDeleted = true
	return nil
}

func (r *fakeFileRepo) SumActiveSizesByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var total int64
	for _, f := range r.files {
		if f.UserID == userID && !f.IsDeleted && !f.IsFolder() {
			total += f.Size
		}
	}
	return total, nil
}

type fakeDropRepo struct {
	drops  map[uint]*models.Drop
	nextID uint
}

func newFakeDropRepo() *fakeDropRepo {
	return &fakeDropRepo{drops: make(map[uint]*models.Drop), nextID: 1}
}

func (r *fakeDropRepo) addDrop(drop models.Drop) *models.Drop {
	if drop.ID == 0 {
		drop.ID = r.nextID
	}
	if drop.ID >= r.nextID {
		r.nextID = drop.ID + 1
	}
	stored := drop
	r.drops[stored.ID] = &stored
	return &stored
}

func (r *fakeDropRepo) Create(ctx context.Context, tx *gorm.DB, drop *models.Drop, files []models.File) error {
	drop.ID = r.nextID
	r.nextID++
	stored := *drop
	stored.Files = append([]models.File(nil), files...)
	r.drops[stored.ID] = &stored
	return nil
}

func (r *fakeDropRepo) CountActiveByCode(ctx context.Context, tx *gorm.DB, code string, excludeID uint) (int64, error) {
	var count int64
	for _, d := range r.drops {
		if d.Code == code && !d.IsDeleted && d.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (r *fakeDropRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (models.Drop, error) {
	for _, d := range r.drops {
		if d.Code == code && !d.IsDeleted {
			out := *d
			out.Files = nil
			for _, f := range d.Files {
				if !f.IsDeleted {
					out.Files = append(out.Files, f)
				}
			}
			return out, nil
		}
	}
	return models.Drop{}, gorm.ErrRecordNotFound
}

func (r *fakeDropRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, dropID uint, userID uint) (models.Drop, error) {
	d, ok := r.drops[dropID]
	if !ok || d.IsDeleted || d.UserID != userID {
		return models.Drop{}, gorm.ErrRecordNotFound
	}
	return *d, nil
}

func (r *fakeDropRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, dropID uint) (models.Drop, error) {
	d, ok := r.drops[dropID]
	if !ok {
		return models.Drop{}, gorm.ErrRecordNotFound
	}
	return *d, nil
}

func (r *fakeDropRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Drop, error) {
	var out []models.Drop
	for _, d := range r.drops {
		if d.UserID == userID && !d.IsDeleted {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDropRepo) ContainsFile(ctx context.Context, tx *gorm.DB, dropID uint, fileID uint) (bool, error) {
	d, ok := r.drops[dropID]
	if !ok {
		return false, nil
	}
	for _, f := range d.Files {
		if f.ID == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDropRepo) UpdateByID(ctx context.Context, tx *gorm.DB, dropID uint, updates map[string]interface{}) error {
	d, ok := r.drops[dropID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["download_count"]; ok {
		d.DownloadCount = v.(int)
	}
	if v, ok := updates["is_expired"]; ok {
		d.IsExpired = v.(bool)
	}
	return nil
}

func (r *fakeDropRepo) SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, dropID uint, userID uint) error {
	d, ok := r.drops[dropID]
	if !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	d.IsDeleted = true
	return nil
}

func (r *fakeDropRepo) MarkOverdueExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	var count int64
	for _, d := range r.drops {
		if !d.IsDeleted && !d.IsExpired && now.After(d.ExpireTime) {
			d.IsExpired = true
			count++
		}
	}
	return count, nil
}

type fakeSessionRepo struct {
	sessions map[string]models.UploadSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]models.UploadSession)}
}

func (r *fakeSessionRepo) Put(ctx context.Context, uploadID string, session models.UploadSession, ttl time.Duration) error {
	r.sessions[uploadID] = session
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, uploadID string) (models.UploadSession, bool, error) {
	s, ok := r.sessions[uploadID]
	return s, ok, nil
}

func (r *fakeSessionRepo) Consume(ctx context.Context, uploadID string) (models.UploadSession, bool, error) {
	s, ok := r.sessions[uploadID]
	if ok {
		delete(r.sessions, uploadID)
	}
	return s, ok, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, uploadID string) error {
	delete(r.sessions, uploadID)
	return nil
}

type fakeGateway struct {
	objectSizes map[string]int64
	headErr     error
	policyErr   error
	deletedKeys []string
	issuedKeys  []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{objectSizes: make(map[string]int64)}
}

func (g *fakeGateway) IssueUploadPolicy(ctx context.Context, userID uint, declaredSize int64) (oss.UploadPolicy, error) {
	if g.policyErr != nil {
		return oss.UploadPolicy{}, g.policyErr
	}
	key := "files/1/object"
	g.issuedKeys = append(g.issuedKeys, key)
	return oss.UploadPolicy{
		URL:         "https://test-bucket.example.com",
		Fields:      map[string]string{"key": key},
		ObjectKey:   key,
		KeyPrefix:   "files/1/",
		Expire:      time.Now().Add(time.Hour),
		SizeCeiling: oss.SizeCeiling(declaredSize),
	}, nil
}

func (g *fakeGateway) IssueDownloadURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	return "https://test-bucket.example.com/" + objectKey + "?signed", nil
}

func (g *fakeGateway) GetObjectSize(ctx context.Context, objectKey string) (int64, error) {
	if g.headErr != nil {
		return 0, g.headErr
	}
	size, ok := g.objectSizes[objectKey]
	if !ok {
		return 0, oss.ErrObjectNotFound
	}
	return size, nil
}

func (g *fakeGateway) DeleteObject(ctx context.Context, objectKey string) error {
	g.deletedKeys = append(g.deletedKeys, objectKey)
	delete(g.objectSizes, objectKey)
	return nil
}
