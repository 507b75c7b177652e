package industry

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetPreferences(userID int) ([]View, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetPreferences(userID)
}

func (s *Service) GetGuestPreferences() ([]View, error) {
	return s.repo.GetGuestPreferences()
}

func (s *Service) SynchronizePreferences(userID int, desired []Selection) ([]View, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.SynchronizePreferences(userID, desired)
}

// SelectedIndustryIDs returns the ids of the industries the user currently
// has opted into. The catalog search derives its industry scope from this
// instead of trusting industries sent in the request.
func (s *Service) SelectedIndustryIDs(userID int) ([]int, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.SelectedIndustryIDs(userID)
}
