package rpc

import (
	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/content"
	"github.com/agrilink/agrilink/internal/forum"
	"github.com/agrilink/agrilink/internal/notifications"
	"github.com/agrilink/agrilink/internal/profiles"
	"github.com/agrilink/agrilink/internal/users"
)

// Services bundles the domain services the procedure surface is built on.
type Services struct {
	Users         *users.Service
	Profiles      *profiles.Service
	Content       *content.Service
	Forum         *forum.Service
	Notifications *notifications.Service
	Logger        *zap.Logger
}

const defaultPageSize = 20

// page clamps client-supplied paging. Out-of-range limits fall back to the
// default page size rather than erroring.
func page(in Input) (limit, offset int) {
	limit = defaultPageSize
	if f := in.Int("limit"); f.IsSet() && !f.IsNull() {
		if v := f.Value(); v > 0 && v <= 100 {
			limit = v
		}
	}
	if f := in.Int("offset"); f.IsSet() && !f.IsNull() {
		if v := f.Value(); v > 0 {
			offset = v
		}
	}
	return limit, offset
}

func notImplemented(name string) Handler {
	return func(*Ctx, Input) (any, error) {
		return nil, apperr.Newf(apperr.CodeNotImplemented, "%s is not implemented yet", name)
	}
}

// RegisterAll mounts the full procedure surface on r.
func RegisterAll(r *Registry, s Services) {
	registerAuth(r, s)
	registerUser(r, s)
	registerAdmin(r, s)
	registerResources(r, s)
	registerForum(r, s)
	registerGuidance(r, s)
	registerNotifications(r, s)
	registerStories(r, s)
}

func registerAuth(r *Registry, s Services) {
	r.Register(&Procedure{
		Name: "auth.me",
		Kind: Query,
		Handler: func(ctx *Ctx, _ Input) (any, error) {
			// Anonymous callers get an explicit null, not an error.
			if ctx.Caller == nil {
				return nil, nil
			}
			return ctx.Caller, nil
		},
	})

	r.Register(&Procedure{
		Name: "auth.logout",
		Kind: Mutation,
		Handler: func(ctx *Ctx, _ Input) (any, error) {
			if ctx.ClearSession != nil {
				ctx.ClearSession()
			}
			return map[string]any{"success": true}, nil
		},
	})
}

// profileView is the user record flattened together with the caller's
// role-specific profile, if any.
type profileView struct {
	*users.User
	FarmerProfile *profiles.FarmerProfile `json:"farmerProfile,omitempty"`
	ExpertProfile *profiles.ExpertProfile `json:"expertProfile,omitempty"`
}

func registerUser(r *Registry, s Services) {
	r.Register(&Procedure{
		Name:   "user.getProfile",
		Kind:   Query,
		Guards: []Guard{Authenticated()},
		Handler: func(ctx *Ctx, _ Input) (any, error) {
			out := &profileView{User: ctx.Caller}
			switch ctx.Caller.Role {
			case users.RoleFarmer:
				p, err := s.Profiles.GetFarmer(ctx, ctx.Caller.ID)
				if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
					return nil, err
				}
				out.FarmerProfile = p
			case users.RoleExpert:
				p, err := s.Profiles.GetExpert(ctx, ctx.Caller.ID)
				if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
					return nil, err
				}
				out.ExpertProfile = p
			}
			return out, nil
		},
	})

	r.Register(&Procedure{
		Name:   "user.updateProfile",
		Kind:   Mutation,
		Guards: []Guard{Authenticated()},
		Schema: Schema{
			"name":         {Type: String},
			"bio":          {Type: String},
			"profileImage": {Type: String},
		},
		Handler: notImplemented("user.updateProfile"),
	})

	r.Register(&Procedure{
		Name:   "user.updateFarmerProfile",
		Kind:   Mutation,
		Guards: []Guard{Authenticated(), RequireRole(users.RoleFarmer)},
		Schema: Schema{
			"farmName":   {Type: String},
			"farmSize":   {Type: String},
			"cropsGrown": {Type: String},
			"location":   {Type: String},
			"latitude":   {Type: Float},
			"longitude":  {Type: Float},
			"phone":      {Type: String},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			upd := profiles.FarmerUpdate{
				FarmName:   in.Str("farmName"),
				FarmSize:   in.Str("farmSize"),
				CropsGrown: in.Str("cropsGrown"),
				Location:   in.Str("location"),
				Latitude:   in.Float("latitude"),
				Longitude:  in.Float("longitude"),
				Phone:      in.Str("phone"),
			}
			if err := s.Profiles.UpdateFarmer(ctx, ctx.Caller.ID, upd); err != nil {
				return nil, err
			}
			return map[string]any{"success": true}, nil
		},
	})

	r.Register(&Procedure{
		Name:   "user.updateExpertProfile",
		Kind:   Mutation,
		Guards: []Guard{Authenticated(), RequireRole(users.RoleExpert)},
		Schema: Schema{
			"specialization":    {Type: String},
			"qualifications":    {Type: String},
			"yearsOfExperience": {Type: Int},
			"organization":      {Type: String},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			upd := profiles.ExpertUpdate{
				Specialization:    in.Str("specialization"),
				Qualifications:    in.Str("qualifications"),
				YearsOfExperience: in.Int("yearsOfExperience"),
				Organization:      in.Str("organization"),
			}
			if err := s.Profiles.UpdateExpert(ctx, ctx.Caller.ID, upd); err != nil {
				return nil, err
			}
			return map[string]any{"success": true}, nil
		},
	})
}

func registerAdmin(r *Registry, s Services) {
	admin := []Guard{Authenticated(), RequireRole(users.RoleAdmin)}

	r.Register(&Procedure{
		Name:   "admin.getAllUsers",
		Kind:   Query,
		Guards: admin,
		Handler: func(ctx *Ctx, _ Input) (any, error) {
			return s.Users.List(ctx)
		},
	})

	r.Register(&Procedure{
		Name:   "admin.getUserById",
		Kind:   Query,
		Guards: admin,
		Schema: Schema{"userId": {Type: Int, Required: true}},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Users.GetByID(ctx, in.ID("userId"))
		},
	})

	r.Register(&Procedure{
		Name:   "admin.updateUserRole",
		Kind:   Mutation,
		Guards: admin,
		Schema: Schema{
			"userId": {Type: Int, Required: true},
			"role":   {Type: String, Required: true, Enum: []string{"admin", "farmer", "expert", "public"}},
		},
		Handler: notImplemented("admin.updateUserRole"),
	})

	r.Register(&Procedure{
		Name:    "admin.deactivateUser",
		Kind:    Mutation,
		Guards:  admin,
		Schema:  Schema{"userId": {Type: Int, Required: true}},
		Handler: notImplemented("admin.deactivateUser"),
	})

	r.Register(&Procedure{
		Name:    "admin.getStatistics",
		Kind:    Query,
		Guards:  admin,
		Handler: notImplemented("admin.getStatistics"),
	})

	r.Register(&Procedure{
		Name:   "admin.setExpertVerification",
		Kind:   Mutation,
		Guards: admin,
		Schema: Schema{
			"userId": {Type: Int, Required: true},
			"status": {Type: String, Required: true, Enum: []string{"pending", "verified", "rejected"}},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			status := profiles.VerificationStatus(in.Text("status"))
			if err := s.Profiles.SetExpertVerification(ctx, in.ID("userId"), status); err != nil {
				return nil, err
			}
			return map[string]any{"success": true}, nil
		},
	})
}

func registerResources(r *Registry, s Services) {
	r.Register(&Procedure{
		Name: "resources.list",
		Kind: Query,
		Schema: Schema{
			"category": {Type: String},
			"limit":    {Type: Int},
			"offset":   {Type: Int},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			limit, offset := page(in)
			return s.Content.ListResources(ctx, in.Text("category"), limit, offset)
		},
	})

	r.Register(&Procedure{
		Name:   "resources.getById",
		Kind:   Query,
		Schema: Schema{"id": {Type: Int, Required: true}},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Content.GetResource(ctx, in.ID("id"))
		},
	})

	r.Register(&Procedure{
		Name:   "resources.create",
		Kind:   Mutation,
		Guards: []Guard{Authenticated()},
		Schema: Schema{
			"title":        {Type: String, Required: true},
			"description":  {Type: String},
			"content":      {Type: String},
			"resourceType": {Type: String, Required: true, Enum: content.ResourceTypes},
			"category":     {Type: String},
			"fileUrl":      {Type: String},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Content.CreateResource(ctx, ctx.Caller, content.NewResource{
				Title:        in.Text("title"),
				Description:  in.TextPtr("description"),
				Content:      in.TextPtr("content"),
				ResourceType: content.ResourceType(in.Text("resourceType")),
				Category:     in.TextPtr("category"),
				FileURL:      in.TextPtr("fileUrl"),
			})
		},
	})

	r.Register(&Procedure{
		Name:    "resources.publish",
		Kind:    Mutation,
		Guards:  []Guard{Authenticated(), RequireRole(users.RoleAdmin)},
		Schema:  Schema{"resourceId": {Type: Int, Required: true}},
		Handler: notImplemented("resources.publish"),
	})

	r.Register(&Procedure{
		Name:   "resources.delete",
		Kind:   Mutation,
		Guards: []Guard{Authenticated()},
		Schema: Schema{"resourceId": {Type: Int, Required: true}},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			if err := s.Content.DeleteResource(ctx, ctx.Caller, in.ID("resourceId")); err != nil {
				return nil, err
			}
			return map[string]any{"success": true}, nil
		},
	})
}

func registerForum(r *Registry, s Services) {
	r.Register(&Procedure{
		Name: "forum.questions.list",
		Kind: Query,
		Schema: Schema{
			"category": {Type: String},
			"status":   {Type: String, Enum: []string{"open", "answered", "closed"}},
			"limit":    {Type: Int},
			"offset":   {Type: Int},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			limit, offset := page(in)
			return s.Forum.ListQuestions(ctx, in.Text("category"), limit, offset)
		},
	})

	r.Register(&Procedure{
		Name:   "forum.questions.getById",
		Kind:   Query,
		Schema: Schema{"id": {Type: Int, Required: true}},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Forum.GetThread(ctx, in.ID("id"))
		},
	})

	r.Register(&Procedure{
		Name:   "forum.questions.create",
		Kind:   Mutation,
		Guards: []Guard{Authenticated()},
		Schema: Schema{
			"title":    {Type: String, Required: true},
			"content":  {Type: String, Required: true},
			"category": {Type: String},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Forum.CreateQuestion(ctx, ctx.Caller.ID, forum.NewQuestion{
				Title:    in.Text("title"),
				Content:  in.Text("content"),
				Category: in.TextPtr("category"),
			})
		},
	})

	r.Register(&Procedure{
		Name:   "forum.answers.create",
		Kind:   Mutation,
		Guards: []Guard{Authenticated()},
		Schema: Schema{
			"questionId": {Type: Int, Required: true},
			"content":    {Type: String, Required: true},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Forum.CreateAnswer(ctx, in.ID("questionId"), ctx.Caller.ID, in.Text("content"))
		},
	})

	r.Register(&Procedure{
		Name:    "forum.answers.markAsAccepted",
		Kind:    Mutation,
		Guards:  []Guard{Authenticated()},
		Schema:  Schema{"answerId": {Type: Int, Required: true}},
		Handler: notImplemented("forum.answers.markAsAccepted"),
	})
}

func registerGuidance(r *Registry, s Services) {
	r.Register(&Procedure{
		Name: "guidance.list",
		Kind: Query,
		Schema: Schema{
			"limit":  {Type: Int},
			"offset": {Type: Int},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			limit, offset := page(in)
			return s.Content.ListGuidance(ctx, limit, offset)
		},
	})

	r.Register(&Procedure{
		Name:   "guidance.create",
		Kind:   Mutation,
		Guards: []Guard{Authenticated(), RequireRole(users.RoleExpert)},
		Schema: Schema{
			"title":    {Type: String, Required: true},
			"content":  {Type: String, Required: true},
			"category": {Type: String},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Content.CreateGuidance(ctx, ctx.Caller.ID, content.NewGuidance{
				Title:    in.Text("title"),
				Content:  in.Text("content"),
				Category: in.TextPtr("category"),
			})
		},
	})

	r.Register(&Procedure{
		Name:   "guidance.getByExpert",
		Kind:   Query,
		Guards: []Guard{Authenticated()},
		Schema: Schema{"expertId": {Type: Int, Required: true}},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Content.ListGuidanceByExpert(ctx, in.ID("expertId"))
		},
	})
}

func registerNotifications(r *Registry, s Services) {
	r.Register(&Procedure{
		Name:   "notifications.list",
		Kind:   Query,
		Guards: []Guard{Authenticated()},
		Schema: Schema{
			"limit":  {Type: Int},
			"offset": {Type: Int},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			limit, offset := page(in)
			return s.Notifications.ListForUser(ctx, ctx.Caller.ID, limit, offset)
		},
	})

	r.Register(&Procedure{
		Name:    "notifications.markAsRead",
		Kind:    Mutation,
		Guards:  []Guard{Authenticated()},
		Schema:  Schema{"notificationId": {Type: Int, Required: true}},
		Handler: notImplemented("notifications.markAsRead"),
	})
}

func registerStories(r *Registry, s Services) {
	r.Register(&Procedure{
		Name: "successStories.list",
		Kind: Query,
		Schema: Schema{
			"limit":  {Type: Int},
			"offset": {Type: Int},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			limit, offset := page(in)
			return s.Content.ListStories(ctx, limit, offset)
		},
	})

	r.Register(&Procedure{
		Name:   "successStories.create",
		Kind:   Mutation,
		Guards: []Guard{Authenticated()},
		Schema: Schema{
			"title":       {Type: String, Required: true},
			"description": {Type: String, Required: true},
			"imageUrl":    {Type: String},
		},
		Handler: func(ctx *Ctx, in Input) (any, error) {
			return s.Content.CreateStory(ctx, ctx.Caller.ID, content.NewSuccessStory{
				Title:       in.Text("title"),
				Description: in.Text("description"),
				ImageURL:    in.TextPtr("imageUrl"),
			})
		},
	})
}
