package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// store is an in-memory implementation of every repository the services use
type store struct {
	mu          sync.Mutex
	users       map[string]*entities.User
	orgs        map[string]*entities.Organisation
	memberships []entities.OrganisationMembership
	follows     []entities.Follow
	requests    []entities.FollowRequest
	restaurants map[string]*entities.Restaurant
	reviews     []*entities.Review
}

func newStore() *store {
	return &store{
		users:       map[string]*entities.User{},
		orgs:        map[string]*entities.Organisation{},
		restaurants: map[string]*entities.Restaurant{},
	}
}

func (s *store) addUser(id string, private bool) *entities.User {
	u := &entities.User{ID: id, DisplayName: strings.ToUpper(id[:1]) + id[1:], IsPrivate: private}
	s.users[id] = u
	return u
}

func (s *store) addOrg(id, slug string, members map[string]entities.MembershipRole) {
	s.orgs[id] = &entities.Organisation{ID: id, Name: slug, Slug: slug}
	ids := make([]string, 0, len(members))
	for userID := range members {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	for _, userID := range ids {
		s.memberships = append(s.memberships, entities.OrganisationMembership{OrganisationID: id, UserID: userID, Role: members[userID]})
	}
}

func (s *store) addRestaurant(id string, categories ...entities.Category) *entities.Restaurant {
	r := &entities.Restaurant{ID: id, Name: id, Categories: categories}
	s.restaurants[id] = r
	return r
}

// addReview prepends, keeping reviews newest first
func (s *store) addReview(id, restaurantID, userID string, rating int, comment string) *entities.Review {
	r := &entities.Review{ID: id, RestaurantID: restaurantID, UserID: userID, Rating: rating}
	if comment != "" {
		r.Comment = &comment
	}
	s.reviews = append([]*entities.Review{r}, s.reviews...)
	return r
}

type userRepo struct{ *store }

func (r userRepo) Create(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperrors.NewNotFoundError("user " + id + " not found")
}

func (r userRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entities.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (r userRepo) Update(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r userRepo) List(ctx context.Context) ([]*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

type orgRepo struct{ *store }

func (r orgRepo) Create(ctx context.Context, org *entities.Organisation, creatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orgs {
		if existing.Slug == org.Slug {
			return apperrors.NewConflictError("organisation slug already taken")
		}
	}
	r.orgs[org.ID] = org
	r.memberships = append(r.memberships, entities.OrganisationMembership{OrganisationID: org.ID, UserID: creatorID, Role: entities.MembershipRoleAdmin})
	return nil
}

func (r orgRepo) GetByID(ctx context.Context, id string) (*entities.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orgs[id]; ok {
		return o, nil
	}
	return nil, apperrors.NewNotFoundError("organisation not found")
}

func (r orgRepo) GetBySlug(ctx context.Context, slug string) (*entities.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, apperrors.NewNotFoundError("organisation " + slug + " not found")
}

func (r orgRepo) List(ctx context.Context) ([]*entities.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Organisation, 0, len(r.orgs))
	for _, o := range r.orgs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r orgRepo) ListForUser(ctx context.Context, userID string) ([]*entities.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entities.Organisation{}
	for _, m := range r.memberships {
		if m.UserID == userID {
			out = append(out, r.orgs[m.OrganisationID])
		}
	}
	return out, nil
}

func (r orgRepo) AddMember(ctx context.Context, membership *entities.OrganisationMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.memberships {
		if m.OrganisationID == membership.OrganisationID && m.UserID == membership.UserID {
			return apperrors.NewConflictError("already a member")
		}
	}
	r.memberships = append(r.memberships, *membership)
	return nil
}

func (r orgRepo) RemoveMember(ctx context.Context, orgID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.memberships {
		if m.OrganisationID == orgID && m.UserID == userID {
			r.memberships = append(r.memberships[:i], r.memberships[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("membership not found")
}

func (r orgRepo) ListMembers(ctx context.Context, orgID string) ([]entities.OrganisationMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entities.OrganisationMembership{}
	for _, m := range r.memberships {
		if m.OrganisationID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r orgRepo) ListAllMemberships(ctx context.Context) ([]entities.OrganisationMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.OrganisationMembership(nil), r.memberships...), nil
}

func (r orgRepo) CountAdmins(ctx context.Context, orgID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.memberships {
		if m.OrganisationID == orgID && m.Role == entities.MembershipRoleAdmin {
			n++
		}
	}
	return n, nil
}

type followRepo struct{ *store }

func (r followRepo) ListFollows(ctx context.Context) ([]entities.Follow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.Follow(nil), r.follows...), nil
}

func (r followRepo) ListRequests(ctx context.Context) ([]entities.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.FollowRequest(nil), r.requests...), nil
}

func (r followRepo) ListForPair(ctx context.Context, a, b string) ([]entities.Follow, []entities.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pair := func(x, y string) bool { return (x == a && y == b) || (x == b && y == a) }
	follows := []entities.Follow{}
	for _, f := range r.follows {
		if pair(f.FollowerID, f.FollowingID) {
			follows = append(follows, f)
		}
	}
	requests := []entities.FollowRequest{}
	for _, req := range r.requests {
		if pair(req.RequesterID, req.TargetID) {
			requests = append(requests, req)
		}
	}
	return follows, requests, nil
}

func (r followRepo) CreateFollow(ctx context.Context, follow *entities.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows = append(r.follows, *follow)
	return nil
}

func (r followRepo) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			r.follows = append(r.follows[:i], r.follows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r followRepo) CreateRequest(ctx context.Context, request *entities.FollowRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, *request)
	return nil
}

func (r followRepo) GetRequest(ctx context.Context, id string) (*entities.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ID == id {
			found := req
			return &found, nil
		}
	}
	return nil, apperrors.NewNotFoundError("follow request " + id + " not found")
}

func (r followRepo) DeleteRequest(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, req := range r.requests {
		if req.ID == id {
			r.requests = append(r.requests[:i], r.requests[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r followRepo) AcceptRequest(ctx context.Context, requestID string, follow *entities.Follow) error {
	if err := r.DeleteRequest(ctx, requestID); err != nil {
		return err
	}
	if follow != nil {
		return r.CreateFollow(ctx, follow)
	}
	return nil
}

func (r followRepo) ListIncomingRequests(ctx context.Context, targetID string) ([]entities.FollowRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entities.FollowRequest{}
	for _, req := range r.requests {
		if req.TargetID == targetID {
			out = append(out, req)
		}
	}
	return out, nil
}

type restaurantRepo struct{ *store }

func (r restaurantRepo) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restaurants[restaurant.ID] = restaurant
	return nil
}

func (r restaurantRepo) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if restaurant, ok := r.restaurants[id]; ok {
		return restaurant, nil
	}
	return nil, apperrors.NewNotFoundError("restaurant " + id + " not found")
}

func (r restaurantRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entities.Restaurant{}
	for _, id := range ids {
		if restaurant, ok := r.restaurants[id]; ok {
			out = append(out, restaurant)
		}
	}
	return out, nil
}

func (r restaurantRepo) List(ctx context.Context, filter repositories.RestaurantFilter) ([]*entities.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entities.Restaurant{}
	for _, restaurant := range r.restaurants {
		if len(filter.Categories) == 0 {
			out = append(out, restaurant)
			continue
		}
		for _, c := range filter.Categories {
			if restaurant.HasCategory(c) {
				out = append(out, restaurant)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r restaurantRepo) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	return r.Create(ctx, restaurant)
}

type reviewRepo struct{ *store }

func (r reviewRepo) Create(ctx context.Context, review *entities.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append([]*entities.Review{review}, r.reviews...)
	return nil
}

func (r reviewRepo) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, review := range r.reviews {
		if review.ID == id {
			copied := *review
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("review " + id + " not found")
}

func (r reviewRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]*entities.Review, error) {
	return r.filter(func(review *entities.Review) bool { return review.RestaurantID == restaurantID }), nil
}

func (r reviewRepo) ListByUser(ctx context.Context, userID string) ([]*entities.Review, error) {
	return r.filter(func(review *entities.Review) bool { return review.UserID == userID }), nil
}

func (r reviewRepo) ListAll(ctx context.Context) ([]*entities.Review, error) {
	return r.filter(func(*entities.Review) bool { return true }), nil
}

func (r reviewRepo) filter(keep func(*entities.Review) bool) []*entities.Review {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entities.Review{}
	for _, review := range r.reviews {
		if keep(review) {
			out = append(out, review)
		}
	}
	return out
}

func (r reviewRepo) Update(ctx context.Context, review *entities.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.reviews {
		if existing.ID == review.ID {
			r.reviews[i] = review
			return nil
		}
	}
	return apperrors.NewNotFoundError("review not found")
}

func (r reviewRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.reviews {
		if existing.ID == id {
			r.reviews = append(r.reviews[:i], r.reviews[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("review not found")
}

// MockEventBus records publishes
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ReviewEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *MockEventBus) PublishSocial(ctx context.Context, channel string, event *entities.SocialEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReviewEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.ReviewEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

// MockSearchRepository stands in for the Typesense index
type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Index(ctx context.Context, doc repositories.RestaurantDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockSearchRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSearchRepository) Search(ctx context.Context, query string, categories []entities.Category, limit int) ([]string, error) {
	args := m.Called(ctx, query, categories, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockCacheProvider is a testify mock of the cache
type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return m.Called(ctx, key, value, expirationSeconds).Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheProvider) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]byte), args.Error(1)
}

func (m *MockCacheProvider) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	return m.Called(ctx, items, expirationSeconds).Error(0)
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

func (m *MockCacheProvider) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	args := m.Called(ctx, key, expirationSeconds)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheProvider) TTL(ctx context.Context, key string) (time.Duration, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(time.Duration), args.Error(1)
}
