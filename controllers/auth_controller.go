package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

// AuthController handles signup, login and the profile of the current user.
type AuthController struct {
	app *blog.App
}

func NewAuthController(app *blog.App) *AuthController {
	return &AuthController{app: app}
}

type signupRequest struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	DisplayName     string `json:"display_name" form:"display_name"`
	Email           string `json:"email" form:"email"`
}

func (r signupRequest) input() blog.SignupInput {
	return blog.SignupInput{
		Username:        r.Username,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		DisplayName:     r.DisplayName,
		Email:           r.Email,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// login stores the session under a fresh context id and signs the cookie
// for it. The visitor's theme follows them into the new context and any
// session left in the old one is dropped.
func (a *AuthController) login(ctx *gin.Context, req loginRequest) (*models.Session, string, error) {
	c := ctx.Request.Context()
	sid := uuid.NewString()
	sess, err := a.app.Login(c, sid, req.Username, req.Password)
	if err != nil {
		return nil, "", err
	}
	if old := middleware.SessionID(ctx); old != "" && old != sid {
		if err := a.app.SetTheme(c, sid, a.app.Theme(c, old)); err != nil {
			utils.Sugar.Warnf("carry theme over login failed: %v", err)
		}
		if err := a.app.Logout(c, old); err != nil {
			utils.Sugar.Warnf("clear previous session failed: %v", err)
		}
	}
	token, err := middleware.IssueSession(ctx, sid, sess.Username)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Register creates an account. It does not log the user in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req signupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}
	err := a.app.Signup(ctx.Request.Context(), req.input())
	record("signup", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"username": strings.TrimSpace(req.Username)})
}

// Login verifies credentials and issues a session token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}
	sess, token, err := a.login(ctx, req)
	record("login", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"token": token,
		"user":  sessionResponse(sess),
	})
}

// Logout drops the stored session; the token stops resolving to a user.
func (a *AuthController) Logout(ctx *gin.Context) {
	err := a.app.Logout(ctx.Request.Context(), middleware.SessionID(ctx))
	record("logout", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.app.User(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, userResponse(*user))
}

// UpdateProfile accepts JSON or a multipart form with a picture.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	in, err := a.bindProfile(ctx)
	if err != nil {
		record("update_profile", err)
		respondError(ctx, err)
		return
	}
	sess, err := a.app.UpdateProfile(ctx.Request.Context(), middleware.SessionID(ctx), in)
	record("update_profile", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, sessionResponse(sess))
}

// DeleteAccount requires ?confirm=true.
func (a *AuthController) DeleteAccount(ctx *gin.Context) {
	confirmed := ctx.Query("confirm") == "true"
	err := a.app.DeleteAccount(ctx.Request.Context(), middleware.SessionID(ctx), func(string) bool { return confirmed })
	record("delete_account", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "account deleted"})
}

func (a *AuthController) bindProfile(ctx *gin.Context) (blog.ProfileInput, error) {
	var req struct {
		DisplayName   string `json:"display_name" form:"display_name"`
		Email         string `json:"email" form:"email"`
		Bio           string `json:"bio" form:"bio"`
		RemovePicture bool   `json:"remove_picture"`
		NewPassword   string `json:"new_password" form:"new_password"`
	}
	if strings.HasPrefix(ctx.ContentType(), "application/json") {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return blog.ProfileInput{}, blog.ErrProfileRequired
		}
	} else {
		req.DisplayName = ctx.PostForm("display_name")
		req.Email = ctx.PostForm("email")
		req.Bio = ctx.PostForm("bio")
		req.NewPassword = ctx.PostForm("new_password")
		req.RemovePicture = formBool(ctx, "remove_picture")
	}
	in := blog.ProfileInput{
		DisplayName:   req.DisplayName,
		Email:         req.Email,
		Bio:           req.Bio,
		RemovePicture: req.RemovePicture,
		NewPassword:   req.NewPassword,
	}
	if up := uploadFrom(ctx, "picture"); up != nil {
		pic, err := blog.EncodeImage(ctx.Request.Context(), up, a.app.MaxMediaBytes())
		if err != nil {
			return in, err
		}
		in.Picture = pic
	}
	return in, nil
}

// ShowLogin renders the login form.
func (a *AuthController) ShowLogin(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.html", basePage(ctx, a.app, "Log in"))
}

func (a *AuthController) SubmitLogin(ctx *gin.Context) {
	_, _, err := a.login(ctx, loginRequest{
		Username: ctx.PostForm("username"),
		Password: ctx.PostForm("password"),
	})
	record("login", err)
	if err != nil {
		redirectAlert(ctx, "/login", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

func (a *AuthController) ShowSignup(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "signup.html", basePage(ctx, a.app, "Sign up"))
}

func (a *AuthController) SubmitSignup(ctx *gin.Context) {
	var req signupRequest
	_ = ctx.ShouldBind(&req)
	err := a.app.Signup(ctx.Request.Context(), req.input())
	record("signup", err)
	if err != nil {
		redirectAlert(ctx, "/signup", err)
		return
	}
	redirectNotice(ctx, "/login", "Account created, please log in")
}

func (a *AuthController) SubmitLogout(ctx *gin.Context) {
	err := a.app.Logout(ctx.Request.Context(), middleware.SessionID(ctx))
	record("logout", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	redirectNotice(ctx, "/", "Logged out")
}

func (a *AuthController) ShowProfile(ctx *gin.Context) {
	user, err := a.app.User(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	mine, err := a.app.MyPosts(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	page := basePage(ctx, a.app, "Profile")
	page.Profile = user
	page.SetPosts(mine)
	ctx.HTML(http.StatusOK, "profile.html", page)
}

func (a *AuthController) SubmitProfile(ctx *gin.Context) {
	in, err := a.bindProfile(ctx)
	if err == nil {
		_, err = a.app.UpdateProfile(ctx.Request.Context(), middleware.SessionID(ctx), in)
	}
	record("update_profile", err)
	if err != nil {
		redirectAlert(ctx, "/profile", err)
		return
	}
	redirectNotice(ctx, "/profile", "Profile updated")
}

func (a *AuthController) SubmitDeleteAccount(ctx *gin.Context) {
	err := a.app.DeleteAccount(ctx.Request.Context(), middleware.SessionID(ctx), formConfirm(ctx))
	record("delete_account", err)
	if err != nil {
		redirectAlert(ctx, "/profile", err)
		return
	}
	redirectNotice(ctx, "/", "Account deleted")
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"username":        user.Username,
		"display_name":    user.DisplayName,
		"email":           user.Email,
		"bio":             user.Bio,
		"profile_picture": user.ProfilePicture,
		"created_at":      user.CreatedAt,
		"is_admin":        config.Get().IsAdmin(user.Username),
	}
}

func sessionResponse(sess *models.Session) gin.H {
	return gin.H{
		"username":        sess.Username,
		"display_name":    sess.DisplayName,
		"email":           sess.Email,
		"bio":             sess.Bio,
		"profile_picture": sess.ProfilePicture,
		"logged_in_at":    sess.LoggedInAt,
		"is_admin":        config.Get().IsAdmin(sess.Username),
	}
}
